package handlers

import (
	"net/http"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/models"
)

// ActiveJobs lists today's open jobs. Query parameters override the
// filters held in the UI selection.
func (h *HangarHandler) ActiveJobs(w http.ResponseWriter, r *http.Request) {
	f := h.store.Selection().Filter()
	q := r.URL.Query()
	if q.Has("category") {
		f.Category = q.Get("category")
	}
	if q.Has("location") {
		f.Location = q.Get("location")
	}
	if q.Has("search") {
		f.Search = q.Get("search")
	}
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.ActiveJobs(&snap, h.store.Today(), f))
}

func (h *HangarHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	j, found := h.store.Snapshot().Job(id)
	if !found {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *HangarHandler) OpenJob(w http.ResponseWriter, r *http.Request) {
	var form models.OpenJobForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		form.CreatedBy = claims.Username
	}
	j, err := h.store.OpenJob(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (h *HangarHandler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd models.StatusUpdate
	if err := readJSON(w, r, &upd); err != nil {
		h.badJSON(w, err)
		return
	}
	j, err := h.store.UpdateJobStatus(r.Context(), id, upd)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *HangarHandler) CloseJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form models.CloseJobForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	j, err := h.store.CloseJob(r.Context(), id, form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// DelayedJobs lists open jobs running past their estimate.
func (h *HangarHandler) DelayedJobs(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.DelayedJobs(&snap, h.store.Now()))
}

// Schedule

// scheduleDate falls back to the selected schedule date.
func (h *HangarHandler) scheduleDate(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return h.store.Selection().ScheduleDate
}

func (h *HangarHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.ScheduleForDate(&snap, h.scheduleDate(r)))
}

func (h *HangarHandler) ScheduleStats(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.ScheduleStatsFor(&snap, h.scheduleDate(r)))
}

func (h *HangarHandler) GetScheduleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, found := h.store.Snapshot().ScheduleItem(id)
	if !found {
		http.Error(w, "Schedule item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *HangarHandler) AddScheduleItem(w http.ResponseWriter, r *http.Request) {
	var form models.NewScheduleItemForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	it, err := h.store.AddScheduleItem(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *HangarHandler) UpdateScheduleStage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Stage models.Stage `json:"stage"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.badJSON(w, err)
		return
	}
	it, err := h.store.UpdateScheduleStage(r.Context(), id, req.Stage)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *HangarHandler) MoveScheduleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := h.store.MoveScheduleItemToNextDay(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// PromoteScheduleItem opens a job from a schedule item. The body is
// optional; without a bay the job starts out of bay.
func (h *HangarHandler) PromoteScheduleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Bay *int `json:"bay,omitempty"`
	}
	if err := readJSON(w, r, &req); err != nil && err != errEmptyBody {
		h.badJSON(w, err)
		return
	}
	j, err := h.store.PromoteScheduleItem(r.Context(), id, req.Bay)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (h *HangarHandler) DeleteScheduleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteScheduleItem(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Shift notes

func (h *HangarHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.store.Today()
	}
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.NotesForDate(&snap, date))
}

func (h *HangarHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var form models.NewNoteForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	if form.Author == "" {
		if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
			form.Author = claims.Username
		}
	}
	n, err := h.store.AddNote(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *HangarHandler) MarkNoteRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.store.MarkNoteRead(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *HangarHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteNote(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
