package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"supervisor role", RoleSupervisor, true},
		{"planner role", RolePlanner, true},
		{"technician role", RoleTechnician, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "admin", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	supervisor := &User{Role: RoleSupervisor}
	planner := &User{Role: RolePlanner}
	technician := &User{Role: RoleTechnician}
	viewer := &User{Role: RoleViewer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"supervisor can manage users", supervisor, ActionManageUsers, true},
		{"supervisor can manage fleet", supervisor, ActionManageFleet, true},

		{"planner can manage schedule", planner, ActionManageSchedule, true},
		{"planner can manage catalog", planner, ActionManageCatalog, true},
		{"planner cannot manage fleet", planner, ActionManageFleet, false},
		{"planner cannot manage users", planner, ActionManageUsers, false},

		{"technician can open jobs", technician, ActionManageJobs, true},
		{"technician can close jobs", technician, ActionCloseJobs, true},
		{"technician can write notes", technician, ActionWriteNotes, true},
		{"technician cannot manage schedule", technician, ActionManageSchedule, false},
		{"technician cannot manage catalog", technician, ActionManageCatalog, false},

		{"viewer can view hangar", viewer, ActionViewHangar, true},
		{"viewer cannot write notes", viewer, ActionWriteNotes, false},
		{"viewer cannot open jobs", viewer, ActionManageJobs, false},

		{"unknown role gets nothing", &User{Role: "ghost"}, ActionViewHangar, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
