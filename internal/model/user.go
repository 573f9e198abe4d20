package model

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Regions      []string   `json:"regions"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleManager         = "manager"
	RoleStorekeeper     = "storekeeper"
	RoleSupervisor      = "supervisor"
	RoleNightSupervisor = "night_supervisor"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleManager, RoleStorekeeper, RoleSupervisor, RoleNightSupervisor:
		return true
	}
	return false
}

// IsSupervisor reports whether role supervises regions (day or night shift).
func IsSupervisor(role string) bool {
	return role == RoleSupervisor || role == RoleNightSupervisor
}

// ParseRegions splits the stored comma-joined region list into a set,
// trimming blanks and dropping duplicates while keeping first-seen order.
func ParseRegions(s string) []string {
	var regions []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(regions, r) {
			continue
		}
		regions = append(regions, r)
	}
	return regions
}

// JoinRegions is the storage form of a region set.
func JoinRegions(regions []string) string {
	return strings.Join(ParseRegions(strings.Join(regions, ",")), ",")
}

// ValidatePassword checks the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 100 {
		return errors.New("password is too long")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return errors.New("password must contain at least one number")
	}
	return nil
}
