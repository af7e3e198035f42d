package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents the role of a hangar staff account
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RolePlanner    Role = "planner"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// Actions checked by HasPermission.
const (
	ActionViewHangar     = "view_hangar"
	ActionManageJobs     = "manage_jobs"
	ActionCloseJobs      = "close_jobs"
	ActionManageSchedule = "manage_schedule"
	ActionWriteNotes     = "write_notes"
	ActionManageCatalog  = "manage_catalog"
	ActionManageFleet    = "manage_fleet"
	ActionManageUsers    = "manage_users"
)

// User is a staff account allowed to use the hangar API
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FullName     string             `bson:"full_name" json:"full_name"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a staff registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleSupervisor, RolePlanner, RoleTechnician, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return RoleAllows(u.Role, action)
}

// RoleAllows checks if a role may perform an action
func RoleAllows(role Role, action string) bool {
	switch role {
	case RoleSupervisor:
		return true
	case RolePlanner:
		return action != ActionManageUsers && action != ActionManageFleet
	case RoleTechnician:
		return action == ActionViewHangar || action == ActionManageJobs ||
			action == ActionCloseJobs || action == ActionWriteNotes
	case RoleViewer:
		return action == ActionViewHangar
	default:
		return false
	}
}
