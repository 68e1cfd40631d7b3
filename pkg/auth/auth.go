package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// PasswordCost is the bcrypt cost used for admin passwords
var PasswordCost = 14

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies admin tokens, API keys and staff tokens
type Authenticator struct {
	jwtSecret     []byte
	masterSecret  []byte
	signingSecret []byte
}

// New creates an Authenticator. An empty signingSecret disables staff tokens.
func New(jwtSecret, masterSecret, signingSecret string) *Authenticator {
	return &Authenticator{
		jwtSecret:     []byte(jwtSecret),
		masterSecret:  []byte(masterSecret),
		signingSecret: []byte(signingSecret),
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(username string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// EnsureAdminExists creates the first admin user when the table is empty
func EnsureAdminExists(db *gorm.DB, username, password string, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	logger.Info("default admin user created", zap.String("username", username))
	return nil
}

func sign(secret []byte, parts ...string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(strings.Join(parts, ".")))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(userID string) string {
	return userID + "." + sign(a.masterSecret, userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user ID
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", errors.New("invalid key format")
	}

	userID := parts[0]
	expected := sign(a.masterSecret, userID)

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(parts[1]), []byte(expected)) {
		return "", errors.New("invalid signature")
	}

	return userID, nil
}

// StaffTokensEnabled reports whether submissions must carry a staff token
func (a *Authenticator) StaffTokensEnabled() bool {
	return len(a.signingSecret) > 0
}

// StaffToken returns the token that lets staffID submit to pickerID
func (a *Authenticator) StaffToken(pickerID, staffID string) string {
	return sign(a.signingSecret, pickerID, staffID)
}

// VerifyStaffToken checks a token minted by StaffToken
func (a *Authenticator) VerifyStaffToken(pickerID, staffID, token string) bool {
	return hmac.Equal([]byte(token), []byte(a.StaffToken(pickerID, staffID)))
}
