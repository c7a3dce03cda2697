package app

import (
	"context"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// TimerType classifies what a timer counts down to.
type TimerType uint

const (
	TimerTypeNone TimerType = iota
	TimerTypeArmor
	TimerTypeHull
	TimerTypeAnchoring
	TimerTypeUnanchoring
	TimerTypeMoonMining
	TimerTypeFinal
)

func (t TimerType) String() string {
	switch t {
	case TimerTypeArmor:
		return "armor"
	case TimerTypeHull:
		return "hull"
	case TimerTypeAnchoring:
		return "anchoring"
	case TimerTypeUnanchoring:
		return "unanchoring"
	case TimerTypeMoonMining:
		return "moon mining"
	case TimerTypeFinal:
		return "final"
	}
	return ""
}

// TimerObjective is the relation of the owner to a timer.
type TimerObjective uint

const (
	ObjectiveUndefined TimerObjective = iota
	ObjectiveFriendly
	ObjectiveHostile
)

// Timer describes one structure timer derived from a notification.
type Timer struct {
	Date             time.Time
	Details          string
	IsCorpRestricted bool
	Location         string
	MoonID           optional.Optional[int32]
	Objective        TimerObjective
	OwnerName        string
	SolarSystemID    int32
	StructureName    string
	StructureTypeID  optional.Optional[int32]
	Type             TimerType
}

// TimerSink receives timers derived from notifications.
// Implementations decide where timers are kept.
type TimerSink interface {
	// AddTimer records a new timer.
	AddTimer(ctx context.Context, t Timer) error

	// DeleteTimer removes a previously recorded moon mining timer
	// identified by solar system, moon and structure name.
	// Missing timers are not an error.
	DeleteTimer(ctx context.Context, solarSystemID, moonID int32, structureName string) error
}
