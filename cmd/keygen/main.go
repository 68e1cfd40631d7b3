package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/shift-picker-go/internal/config"
	"github.com/arnavshah/shift-picker-go/pkg/auth"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  keygen key <userID>               mint an API key")
	fmt.Println("  keygen staff <pickerID> <staffID> mint a staff submission token")
	os.Exit(1)
}

func main() {
	config.LoadEnvFiles()

	if len(os.Args) < 3 {
		usage()
	}

	switch os.Args[1] {
	case "key":
		secret := os.Getenv("API_MASTER_SECRET")
		if secret == "" {
			fmt.Println("Error: API_MASTER_SECRET not found in .env")
			os.Exit(1)
		}
		userID := os.Args[2]
		fmt.Printf("Generated Key for %s:\n%s\n", userID, auth.New("", secret, "").GenerateHMACKey(userID))
	case "staff":
		if len(os.Args) < 4 {
			usage()
		}
		secret := os.Getenv("PICKER_SIGNING_SECRET")
		if secret == "" {
			fmt.Println("Error: PICKER_SIGNING_SECRET not found in .env")
			os.Exit(1)
		}
		pickerID, staffID := os.Args[2], os.Args[3]
		fmt.Printf("Staff token for %s in %s:\n%s\n", staffID, pickerID, auth.New("", "", secret).StaffToken(pickerID, staffID))
	default:
		usage()
	}
}
