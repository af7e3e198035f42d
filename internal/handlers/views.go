package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/report"
)

func (h *HangarHandler) Bays(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.Bays(&snap, h.store.Today()))
}

func (h *HangarHandler) Availability(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.AvailabilityOf(&snap, h.store.Today()))
}

func (h *HangarHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.Dashboard(&snap, h.store.Today()))
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func (h *HangarHandler) dateParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	d := r.URL.Query().Get(key)
	if d == "" {
		return h.store.Today(), true
	}
	if _, err := time.Parse(hangar.DateLayout, d); err != nil {
		writeJSON(w, http.StatusBadRequest, &hangar.ValidationError{Fields: map[string]string{key: "must be a YYYY-MM-DD date"}})
		return "", false
	}
	return d, true
}

func (h *HangarHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r, "date")
	if !ok {
		return
	}
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.Timeline(&snap, date, h.store.Now()))
}

func (h *HangarHandler) weekly(w http.ResponseWriter, r *http.Request) (hangar.WeeklySummary, bool) {
	end, ok := h.dateParam(w, r, "end")
	if !ok {
		return hangar.WeeklySummary{}, false
	}
	snap := h.store.Snapshot()
	sum, err := hangar.Weekly(&snap, end, h.store.Now().Location())
	if err != nil {
		h.fail(w, err)
		return hangar.WeeklySummary{}, false
	}
	return sum, true
}

func (h *HangarHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.weekly(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *HangarHandler) WeeklyWorkbook(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.weekly(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteWeekly(&buf, sum); err != nil {
		h.log.WithError(err).Error("Failed to render weekly workbook")
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}
	sendWorkbook(w, "hangar-weekly-"+sum.To+".xlsx", buf.Bytes())
}

func (h *HangarHandler) DailyWorkbook(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r, "date")
	if !ok {
		return
	}
	snap := h.store.Snapshot()
	var buf bytes.Buffer
	if err := report.WriteDaily(&buf, report.BuildDaily(&snap, date, h.store.Now())); err != nil {
		h.log.WithError(err).Error("Failed to render daily workbook")
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}
	sendWorkbook(w, "hangar-"+date+".xlsx", buf.Bytes())
}

func sendWorkbook(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UI selection

func (h *HangarHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Selection())
}

func (h *HangarHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var patch hangar.SelectionPatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badJSON(w, err)
		return
	}
	sel, err := h.store.SetSelection(r.Context(), patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// StatusResponse reports the store clock and its last persistence failure.
type StatusResponse struct {
	Now       time.Time `json:"now"`
	Today     string    `json:"today"`
	LastError string    `json:"last_error,omitempty"`
}

func (h *HangarHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Now:       h.store.Now(),
		Today:     h.store.Today(),
		LastError: h.store.LastError(),
	})
}

// Health is the unauthenticated liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
