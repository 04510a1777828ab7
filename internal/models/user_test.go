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
		{"admin role", RoleAdmin, true},
		{"manager role", RoleManager, true},
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
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
	admin := &User{Role: RoleAdmin}
	manager := &User{Role: RoleManager}
	operator := &User{Role: RoleOperator}
	viewer := &User{Role: RoleViewer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		// Admin permissions - should have all permissions
		{"admin can delete user", admin, ActionDeleteUser, true},
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can decide holidays", admin, ActionDecideHoliday, true},
		{"admin can manage bookings", admin, ActionManageBookings, true},

		// Manager permissions - everything except user management
		{"manager cannot delete user", manager, ActionDeleteUser, false},
		{"manager cannot manage users", manager, ActionManageUsers, false},
		{"manager can decide holidays", manager, ActionDecideHoliday, true},
		{"manager can manage maintenance", manager, ActionManageMaintenance, true},

		// Operator permissions - drivers and crew
		{"operator can view bookings", operator, ActionViewBookings, true},
		{"operator can request holiday", operator, ActionRequestHoliday, true},
		{"operator can submit check", operator, ActionSubmitCheck, true},
		{"operator can view vehicles", operator, ActionViewVehicles, true},
		{"operator cannot decide holidays", operator, ActionDecideHoliday, false},
		{"operator cannot manage bookings", operator, ActionManageBookings, false},
		{"operator cannot view employees", operator, ActionViewEmployees, false},
		{"operator cannot manage users", operator, ActionManageUsers, false},

		// Viewer permissions - read-only access
		{"viewer can view bookings", viewer, ActionViewBookings, true},
		{"viewer can view employees", viewer, ActionViewEmployees, true},
		{"viewer can view maintenance", viewer, ActionViewMaintenance, true},
		{"viewer can view checks", viewer, ActionViewChecks, true},
		{"viewer cannot submit check", viewer, ActionSubmitCheck, false},
		{"viewer cannot request holiday", viewer, ActionRequestHoliday, false},
		{"viewer cannot delete user", viewer, ActionDeleteUser, false},
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
