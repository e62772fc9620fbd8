package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/export"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// AttendanceHandler serves the attendance log.
type AttendanceHandler struct {
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(l *ledger.Ledger) *AttendanceHandler {
	return &AttendanceHandler{ledger: l, now: time.Now}
}

// RecordResponse represents an attendance record in API responses.
type RecordResponse struct {
	RecordID  string    `json:"record_id"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"time"`
	Date      string    `json:"date"`
}

// DayResponse is the attendance of one date.
type DayResponse struct {
	Date    string           `json:"date"`
	Count   int              `json:"count"`
	Records []RecordResponse `json:"records"`
}

// dateParam returns ?date= or today in the ledger time zone.
func (h *AttendanceHandler) dateParam(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return h.ledger.DateOf(h.now())
}

// List returns the records of a date, today by default.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := h.dateParam(r)
	records, err := h.ledger.RecordsFor(r.Context(), date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	result := DayResponse{Date: date, Count: len(records), Records: make([]RecordResponse, len(records))}
	for i, rec := range records {
		result.Records[i] = RecordResponse{
			RecordID:  rec.RecordID,
			ID:        rec.ID,
			Name:      rec.Name,
			Timestamp: rec.Timestamp,
			Time:      rec.Timestamp.Format(export.TimeLayout),
			Date:      rec.Date,
		}
	}
	respondJSON(w, http.StatusOK, result)
}

// Export returns the records of a date as a CSV download.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	date := h.dateParam(r)
	records, err := h.ledger.RecordsFor(r.Context(), date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(date)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
