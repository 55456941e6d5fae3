// Package audit produces the admin Excel export of the bookings ledger.
package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"mentorbook/internal/models"
)

// BookingSource lists the full bookings ledger.
type BookingSource interface {
	ListAllBookings(ctx context.Context) ([]models.Booking, error)
}

// Exporter writes the ledger as an xlsx workbook, one sheet per booking
// status.
type Exporter struct {
	source BookingSource
}

func NewExporter(source BookingSource) *Exporter {
	return &Exporter{source: source}
}

var ledgerColumns = []string{
	"Booking ID", "Mentor", "Mentee", "Start (UTC)", "End (UTC)", "Timezone",
	"Calendar Sync", "Cancelled By", "Cancelled At", "Reason", "Created At",
}

// Export writes the workbook to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	bookings, err := e.source.ListAllBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	byStatus := map[models.BookingStatus][]models.Booking{}
	for _, b := range bookings {
		byStatus[b.Status] = append(byStatus[b.Status], b)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	first := true
	for _, status := range []models.BookingStatus{models.StatusConfirmed, models.StatusCancelled} {
		sheet := string(status)
		if first {
			f.SetSheetName("Sheet1", sheet)
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		for i, col := range ledgerColumns {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, col); err != nil {
				return err
			}
		}
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(ledgerColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, headerStyle)

		for rowIdx, b := range byStatus[status] {
			for colIdx, val := range ledgerRow(&b) {
				cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func ledgerRow(b *models.Booking) []interface{} {
	cancelledAt := ""
	if b.CancelledAt != nil {
		cancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	return []interface{}{
		b.ID,
		b.MentorSnapshot.Name,
		b.MenteeSnapshot.Name,
		b.StartTime.UTC().Format(time.RFC3339),
		b.EndTime.UTC().Format(time.RFC3339),
		b.Timezone,
		string(b.CalendarSyncStatus),
		b.CancelledBy,
		cancelledAt,
		b.CancellationReason,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
