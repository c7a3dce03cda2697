// Package app is the root package of all domain related packages.
//
// All entity types are defined in this package.
package app

import (
	"errors"
	"time"

	"golang.org/x/text/language"
)

// Default formats
const (
	DateTimeFormat = "2006.01.02 15:04"
)

// Sentinel errors
var (
	// ErrInvalid is returned when an operation was called with invalid arguments.
	ErrInvalid = errors.New("invalid arguments")
	// ErrNotFound is returned when an object was not found.
	ErrNotFound = errors.New("object not found")
	// ErrToken is returned when no valid token could be acquired for an owner.
	ErrToken = errors.New("token error")
	// ErrConfigOverlap is returned when a fuel alert config overlaps with an existing one.
	ErrConfigOverlap = errors.New("fuel alert config overlap")
)

// Config holds the feature settings that are threaded into the services.
type Config struct {
	// AdminAlertsEnabled enables operator notifications about sync health transitions.
	AdminAlertsEnabled bool
	// DebugFooter adds the notification ID to every embed footer.
	DebugFooter bool
	// DefaultLanguage is used when a webhook does not specify a language.
	DefaultLanguage language.Tag
	// MoonExtractionTimersEnabled enables timers from moon extraction notifications.
	MoonExtractionTimersEnabled bool
	// RefueledNotificationsEnabled enables generated refueled notifications.
	RefueledNotificationsEnabled bool
	// ReportNPCAttacks enables forwarding of attack notifications from NPCs.
	ReportNPCAttacks bool
	// TimersCorpRestricted restricts created timers to the owner corporation.
	TimersCorpRestricted bool
}

// DefaultConfig returns a config with default settings.
func DefaultConfig() Config {
	return Config{
		AdminAlertsEnabled: true,
		DefaultLanguage:    language.English,
		ReportNPCAttacks:   true,
	}
}

// EntityShort is a short representation of an entity.
type EntityShort[T comparable] struct {
	ID   T
	Name string
}

// Position is a position in 3D space.
type Position struct {
	X float64
	Y float64
	Z float64
}

func isOlderThan(t time.Time, d time.Duration) bool {
	return t.Before(time.Now().Add(-d))
}
