package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"mentorbook/internal/metrics"
)

// Exporter writes the bookings ledger as an xlsx workbook.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

// handleExportBookings streams the full bookings ledger as a workbook.
// GET /api/v1/admin/bookings/export
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_bookings")

	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export not configured")
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.exporter.Export(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Error().Err(err).Msg("Bookings export failed")
	}
}
