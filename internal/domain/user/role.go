package user

import (
	"errors"
	"strings"

	"ridesync/internal/domain/ride"
)

// Role is a user role carried inside JWT claims.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAdmin     Role = "ADMIN"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether role is one of the allowed role constants.
func (role Role) Valid() bool {
	switch role {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Role.
func (role Role) String() string {
	return string(role)
}

// Actor maps an authenticated role onto the transition actor it may assert.
// Admin tokens act on behalf of the system.
func (role Role) Actor() ride.Actor {
	switch role {
	case RoleDriver:
		return ride.ActorDriver
	case RoleAdmin:
		return ride.ActorSystem
	default:
		return ride.ActorPassenger
	}
}
