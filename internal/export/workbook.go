// Package export renders attendance statistics as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"attendance/internal/models"
)

const sheetName = "Statistics"

var headers = []string{
	"User ID",
	"Username",
	"Full name",
	"Status",
	"Days",
	"Online minutes",
	"Office minutes",
	"Late minutes",
	"Early leave minutes",
	"Average online minutes",
	"Attendance rate %",
}

func row(entry models.UserStatistics) []any {
	stats := entry.Statistics
	return []any{
		entry.User.ID,
		entry.User.Username,
		entry.User.FullName(),
		string(entry.User.Status),
		stats.TotalDays,
		stats.TotalOnlineMinutes,
		stats.TotalOfficeMinutes,
		stats.TotalLateMinutes,
		stats.TotalEarlyLeaveMinutes,
		stats.AverageOnlineMinutes,
		stats.AttendanceRate,
	}
}

// StatisticsWorkbook writes one header row and one row per user to w.
func StatisticsWorkbook(w io.Writer, start, end string, entries []models.UserStatistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Attendance statistics",
		Description: fmt.Sprintf("%s to %s", start, end),
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	if err := setRow(f, 1, toAny(headers)); err != nil {
		return err
	}
	for i, entry := range entries {
		if err := setRow(f, i+2, row(entry)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", rowNum, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
