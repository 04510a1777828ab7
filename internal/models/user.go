package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by the permission middleware.
const (
	ActionViewBookings       = "view_bookings"
	ActionManageBookings     = "manage_bookings"
	ActionViewEmployees      = "view_employees"
	ActionManageEmployees    = "manage_employees"
	ActionViewHolidays       = "view_holidays"
	ActionRequestHoliday     = "request_holiday"
	ActionDecideHoliday      = "decide_holiday"
	ActionManageBankHolidays = "manage_bank_holidays"
	ActionViewVehicles       = "view_vehicles"
	ActionManageVehicles     = "manage_vehicles"
	ActionViewMaintenance    = "view_maintenance"
	ActionManageMaintenance  = "manage_maintenance"
	ActionViewChecks         = "view_checks"
	ActionSubmitCheck        = "submit_check"
	ActionManageDefects      = "manage_defects"
	ActionManageUsers        = "manage_users"
	ActionDeleteUser         = "delete_user"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	EmployeeID   string             `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request. The employee link
// is not part of it; only an admin can set that.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=80"`
	LastName  string `json:"last_name" validate:"max=80"`
	Role      Role   `json:"role" validate:"omitempty,oneof=admin manager operator viewer"`
}

// RefreshRequest swaps a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ProfileUpdateRequest changes the caller's own profile. Empty fields are left alone.
type ProfileUpdateRequest struct {
	FirstName string `json:"first_name" validate:"max=80"`
	LastName  string `json:"last_name" validate:"max=80"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// PasswordChangeRequest changes the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
	Exp        int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

var operatorActions = map[string]bool{
	ActionViewBookings:    true,
	ActionViewHolidays:    true,
	ActionRequestHoliday:  true,
	ActionViewVehicles:    true,
	ActionViewMaintenance: true,
	ActionViewChecks:      true,
	ActionSubmitCheck:     true,
}

var viewerActions = map[string]bool{
	ActionViewBookings:    true,
	ActionViewEmployees:   true,
	ActionViewHolidays:    true,
	ActionViewVehicles:    true,
	ActionViewMaintenance: true,
	ActionViewChecks:      true,
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionDeleteUser && action != ActionManageUsers
	case RoleOperator:
		return operatorActions[action]
	case RoleViewer:
		return viewerActions[action]
	default:
		return false
	}
}
