package app

import (
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// OwnerSection is a part of an owner that is synced separately from ESI.
type OwnerSection uint

const (
	SectionStructures OwnerSection = iota
	SectionNotifications
	SectionForwarding
)

func (s OwnerSection) String() string {
	switch s {
	case SectionStructures:
		return "structures"
	case SectionNotifications:
		return "notifications"
	case SectionForwarding:
		return "forwarding"
	}
	return "?"
}

// Grace returns how long a section may be outdated before the owner counts as down.
func (s OwnerSection) Grace() time.Duration {
	switch s {
	case SectionStructures:
		return 120 * time.Minute
	case SectionNotifications:
		return 15 * time.Minute
	case SectionForwarding:
		return 5 * time.Minute
	}
	return 0
}

// SyncError classifies why a sync for an owner section failed.
type SyncError uint

const (
	SyncErrorNone SyncError = iota
	SyncErrorTokenInvalid
	SyncErrorTokenExpired
	SyncErrorInsufficientPermissions
	SyncErrorNoCharacter
	SyncErrorESIUnavailable
	SyncErrorOperationMode
	SyncErrorUnknown
)

func (e SyncError) String() string {
	switch e {
	case SyncErrorNone:
		return "No error"
	case SyncErrorTokenInvalid:
		return "Invalid token"
	case SyncErrorTokenExpired:
		return "Expired token"
	case SyncErrorInsufficientPermissions:
		return "Insufficient permissions"
	case SyncErrorNoCharacter:
		return "No character set for fetching data from ESI"
	case SyncErrorESIUnavailable:
		return "ESI API is currently unavailable"
	case SyncErrorOperationMode:
		return "Operation mode does not match with owner configuration"
	case SyncErrorUnknown:
		return "Unknown error"
	}
	return "?"
}

// SyncStatus is the outcome of the last sync of one owner section.
type SyncStatus struct {
	Error     SyncError
	UpdatedAt optional.Optional[time.Time]
}

// IsOK reports whether the last sync succeeded.
func (s SyncStatus) IsOK() bool {
	return s.Error == SyncErrorNone
}

// IsFresh reports whether the section is both ok and recent enough at a given time.
func (s SyncStatus) IsFresh(section OwnerSection, now time.Time) bool {
	if !s.IsOK() || s.UpdatedAt.IsEmpty() {
		return false
	}
	return now.Sub(s.UpdatedAt.MustValue()) <= section.Grace()
}

// Owner is a corporation whose structures and notifications are tracked.
type Owner struct {
	ID                     int32 // corporation ID
	Alliance               *EveEntity
	CharacterID            optional.Optional[int32]
	CharacterName          string
	Corporation            *EveEntity
	ForwardingSync         SyncStatus
	HasDefaultPingsEnabled bool
	IsAllianceMain         bool
	IsUp                   optional.Optional[bool]
	NotificationsSync      SyncStatus
	PingGroups             []string
	StructuresSync         SyncStatus
	WebhookIDs             []int64
}

// Name returns the display name of an owner, preferring the alliance name
// when the owner is an alliance main.
func (o *Owner) Name() string {
	if o.IsAllianceMain && o.Alliance != nil {
		return o.Alliance.Name
	}
	if o.Corporation != nil {
		return o.Corporation.Name
	}
	return ""
}

// AllianceID returns the alliance ID of an owner when it has one.
func (o *Owner) AllianceID() optional.Optional[int32] {
	if o.Alliance == nil {
		return optional.Optional[int32]{}
	}
	return optional.New(o.Alliance.ID)
}

// IsUpCurrent recomputes the up state of an owner from its section statuses.
func (o *Owner) IsUpCurrent(now time.Time) bool {
	return o.StructuresSync.IsFresh(SectionStructures, now) &&
		o.NotificationsSync.IsFresh(SectionNotifications, now) &&
		o.ForwardingSync.IsFresh(SectionForwarding, now)
}

// SectionStatus returns the sync status of a section.
func (o *Owner) SectionStatus(section OwnerSection) SyncStatus {
	switch section {
	case SectionStructures:
		return o.StructuresSync
	case SectionNotifications:
		return o.NotificationsSync
	case SectionForwarding:
		return o.ForwardingSync
	}
	return SyncStatus{}
}
