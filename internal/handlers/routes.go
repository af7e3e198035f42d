package handlers

import (
	"net/http"

	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/models"
)

// Register mounts every API route on mux. Authentication runs outside the
// mux; each route here only checks the caller's permission.
func Register(mux *http.ServeMux, am *middleware.AuthMiddleware, h *HangarHandler, a *AuthHandler) {
	view := func(fn http.HandlerFunc) http.Handler { return am.Guard(models.ActionViewHangar, fn) }

	mux.HandleFunc("GET /health", Health)

	// Staff accounts
	mux.HandleFunc("/api/auth/login", a.Login)
	mux.HandleFunc("/api/auth/register", a.Register)
	mux.HandleFunc("GET /api/auth/profile", a.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", a.UpdateProfile)
	mux.HandleFunc("POST /api/auth/password", a.ChangePassword)
	mux.Handle("GET /api/users", am.Guard(models.ActionManageUsers, a.ListUsers))
	mux.Handle("DELETE /api/users/{id}", am.Guard(models.ActionManageUsers, a.DeleteUser))

	// Fleet
	mux.Handle("GET /api/vehicles", view(h.ListVehicles))
	mux.Handle("GET /api/vehicles/available", view(h.AvailableVehicles))
	mux.Handle("GET /api/vehicles/{id}", view(h.GetVehicle))
	mux.Handle("POST /api/vehicles", am.Guard(models.ActionManageFleet, h.AddVehicle))
	mux.Handle("POST /api/vehicles/seed", am.Guard(models.ActionManageFleet, h.SeedFleet))
	mux.Handle("PUT /api/vehicles/{id}", am.Guard(models.ActionManageFleet, h.UpdateVehicle))
	mux.Handle("DELETE /api/vehicles/{id}", am.Guard(models.ActionManageFleet, h.DeleteVehicle))

	// Catalog
	mux.Handle("GET /api/technicians", view(h.ListTechnicians))
	mux.Handle("GET /api/technicians/{id}", view(h.GetTechnician))
	mux.Handle("POST /api/technicians", am.Guard(models.ActionManageCatalog, h.AddTechnician))
	mux.Handle("PUT /api/technicians/{id}", am.Guard(models.ActionManageCatalog, h.UpdateTechnician))
	mux.Handle("POST /api/technicians/{id}/toggle", am.Guard(models.ActionManageCatalog, h.ToggleTechnician))
	mux.Handle("DELETE /api/technicians/{id}", am.Guard(models.ActionManageCatalog, h.DeleteTechnician))

	mux.Handle("GET /api/contractors", view(h.ListContractors))
	mux.Handle("GET /api/contractors/{id}", view(h.GetContractor))
	mux.Handle("POST /api/contractors", am.Guard(models.ActionManageCatalog, h.AddContractor))
	mux.Handle("PUT /api/contractors/{id}", am.Guard(models.ActionManageCatalog, h.UpdateContractor))
	mux.Handle("POST /api/contractors/{id}/toggle", am.Guard(models.ActionManageCatalog, h.ToggleContractor))
	mux.Handle("DELETE /api/contractors/{id}", am.Guard(models.ActionManageCatalog, h.DeleteContractor))

	mux.Handle("GET /api/job-types", view(h.ListJobTypes))
	mux.Handle("GET /api/job-types/{id}", view(h.GetJobType))
	mux.Handle("POST /api/job-types", am.Guard(models.ActionManageCatalog, h.AddJobType))
	mux.Handle("PUT /api/job-types/{id}", am.Guard(models.ActionManageCatalog, h.UpdateJobType))
	mux.Handle("POST /api/job-types/{id}/toggle", am.Guard(models.ActionManageCatalog, h.ToggleJobType))
	mux.Handle("DELETE /api/job-types/{id}", am.Guard(models.ActionManageCatalog, h.DeleteJobType))

	// Jobs
	mux.Handle("POST /api/jobs", am.Guard(models.ActionManageJobs, h.OpenJob))
	mux.Handle("GET /api/jobs/active", view(h.ActiveJobs))
	mux.Handle("GET /api/jobs/delayed", view(h.DelayedJobs))
	mux.Handle("GET /api/jobs/{id}", view(h.GetJob))
	mux.Handle("PUT /api/jobs/{id}/status", am.Guard(models.ActionManageJobs, h.UpdateJobStatus))
	mux.Handle("POST /api/jobs/{id}/close", am.Guard(models.ActionCloseJobs, h.CloseJob))

	// Schedule
	mux.Handle("GET /api/schedule", view(h.ListSchedule))
	mux.Handle("GET /api/schedule/stats", view(h.ScheduleStats))
	mux.Handle("GET /api/schedule/{id}", view(h.GetScheduleItem))
	mux.Handle("POST /api/schedule", am.Guard(models.ActionManageSchedule, h.AddScheduleItem))
	mux.Handle("PUT /api/schedule/{id}/stage", am.Guard(models.ActionManageSchedule, h.UpdateScheduleStage))
	mux.Handle("POST /api/schedule/{id}/next-day", am.Guard(models.ActionManageSchedule, h.MoveScheduleItem))
	mux.Handle("POST /api/schedule/{id}/promote", am.Guard(models.ActionManageSchedule, h.PromoteScheduleItem))
	mux.Handle("DELETE /api/schedule/{id}", am.Guard(models.ActionManageSchedule, h.DeleteScheduleItem))

	// Shift notes
	mux.Handle("GET /api/notes", view(h.ListNotes))
	mux.Handle("POST /api/notes", am.Guard(models.ActionWriteNotes, h.AddNote))
	mux.Handle("POST /api/notes/{id}/read", am.Guard(models.ActionWriteNotes, h.MarkNoteRead))
	mux.Handle("DELETE /api/notes/{id}", am.Guard(models.ActionWriteNotes, h.DeleteNote))

	// Views and reports
	mux.Handle("GET /api/bays", view(h.Bays))
	mux.Handle("GET /api/availability", view(h.Availability))
	mux.Handle("GET /api/dashboard", view(h.Dashboard))
	mux.Handle("GET /api/timeline", view(h.Timeline))
	mux.Handle("GET /api/reports/weekly", view(h.WeeklyReport))
	mux.Handle("GET /api/reports/weekly.xlsx", view(h.WeeklyWorkbook))
	mux.Handle("GET /api/reports/daily.xlsx", view(h.DailyWorkbook))
	mux.Handle("GET /api/ui", view(h.GetSelection))
	mux.Handle("PUT /api/ui", view(h.UpdateSelection))
	mux.Handle("GET /api/status", view(h.Status))
}
