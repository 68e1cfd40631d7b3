package picker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/scheduler"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	allocationSheet = "Allocation"
)

var exportHeader = []string{"date", "shift", "slot_key", "staff_id", "staff_name"}

// Export writes a completed picker's allocation to w, one row per slot in grid
// order. Unassigned slots get empty staff columns. It returns the content type.
func (s *Service) Export(ctx context.Context, id, format string, w io.Writer) (string, error) {
	if format != FormatCSV && format != FormatXLSX {
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidPicker, format)
	}

	p, err := database.GetPicker(ctx, s.DB, id)
	if err != nil {
		return "", err
	}
	if !p.IsComplete || p.Allocation == nil {
		return "", ErrNotComplete
	}

	rows := allocationRows(p)
	if format == FormatCSV {
		return "text/csv", writeCSV(w, rows)
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", writeXLSX(w, rows)
}

func allocationRows(p *database.Picker) [][]string {
	owner := make(map[string]string)
	for staffID, keys := range p.Allocation.Assignments {
		for _, k := range keys {
			owner[k] = staffID
		}
	}
	names := make(map[string]string, len(p.Staff))
	for _, st := range p.Staff {
		names[st.ID] = st.Name
	}

	rows := make([][]string, 0, len(p.Dates)*len(p.Shifts))
	for _, sl := range scheduler.EnumerateSlots(p.Dates, p.Shifts) {
		staffID := owner[sl.Key()]
		rows = append(rows, []string{sl.Date, sl.Shift, sl.Key(), staffID, names[staffID]})
	}
	return rows
}

func writeCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", allocationSheet); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	for i, row := range append([][]string{exportHeader}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(allocationSheet, cell, &row); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
