package handlers

import (
	"net/http"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/sirupsen/logrus"
)

// HangarHandler serves the hangar record store over HTTP.
type HangarHandler struct {
	store *hangar.Store
	log   *logrus.Entry
}

// NewHangarHandler creates a handler backed by store.
func NewHangarHandler(store *hangar.Store, logger *logrus.Logger) *HangarHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HangarHandler{store: store, log: logger.WithField("component", "handlers")}
}

func (h *HangarHandler) fail(w http.ResponseWriter, err error) { writeError(w, h.log, err) }

func (h *HangarHandler) badJSON(w http.ResponseWriter, err error) {
	if err == errEmptyBody {
		http.Error(w, "Request body required", http.StatusBadRequest)
		return
	}
	http.Error(w, "Invalid JSON", http.StatusBadRequest)
}

// Vehicles

func (h *HangarHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Vehicles)
}

func (h *HangarHandler) AvailableVehicles(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, hangar.AvailableVehicles(&snap, h.store.Today()))
}

func (h *HangarHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, found := h.store.Snapshot().Vehicle(id)
	if !found {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *HangarHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	var form models.NewVehicleForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	v, err := h.store.AddVehicle(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *HangarHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.VehiclePatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badJSON(w, err)
		return
	}
	v, err := h.store.UpdateVehicle(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *HangarHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteVehicle(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedFleet inserts the default fleet codes that are still missing.
func (h *HangarHandler) SeedFleet(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.SeedFleet(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

// Technicians

func (h *HangarHandler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Technicians)
}

func (h *HangarHandler) GetTechnician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, found := h.store.Snapshot().Technician(id)
	if !found {
		http.Error(w, "Technician not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *HangarHandler) AddTechnician(w http.ResponseWriter, r *http.Request) {
	var form models.NewTechnicianForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	t, err := h.store.AddTechnician(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *HangarHandler) UpdateTechnician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.TechnicianPatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badJSON(w, err)
		return
	}
	t, err := h.store.UpdateTechnician(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *HangarHandler) ToggleTechnician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.ToggleTechnician(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *HangarHandler) DeleteTechnician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTechnician(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Contractors

func (h *HangarHandler) ListContractors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Contractors)
}

func (h *HangarHandler) GetContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, found := h.store.Snapshot().Contractor(id)
	if !found {
		http.Error(w, "Contractor not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *HangarHandler) AddContractor(w http.ResponseWriter, r *http.Request) {
	var form models.NewContractorForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	c, err := h.store.AddContractor(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *HangarHandler) UpdateContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.ContractorPatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badJSON(w, err)
		return
	}
	c, err := h.store.UpdateContractor(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *HangarHandler) ToggleContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.ToggleContractor(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *HangarHandler) DeleteContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteContractor(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Job types

func (h *HangarHandler) ListJobTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().JobTypes)
}

func (h *HangarHandler) GetJobType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	jt, found := h.store.Snapshot().JobType(id)
	if !found {
		http.Error(w, "Job type not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jt)
}

func (h *HangarHandler) AddJobType(w http.ResponseWriter, r *http.Request) {
	var form models.NewJobTypeForm
	if err := readJSON(w, r, &form); err != nil {
		h.badJSON(w, err)
		return
	}
	jt, err := h.store.AddJobType(r.Context(), form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jt)
}

func (h *HangarHandler) UpdateJobType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.JobTypePatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badJSON(w, err)
		return
	}
	jt, err := h.store.UpdateJobType(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jt)
}

func (h *HangarHandler) ToggleJobType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	jt, err := h.store.ToggleJobType(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jt)
}

func (h *HangarHandler) DeleteJobType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteJobType(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
