package app

import (
	"regexp"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// Thresholds in seconds below which two fuel expiry dates are judged as equal.
// Starbase expiry dates fluctuate more, because they are estimated.
const (
	FuelDatesEqualThresholdUpwell   = 1800 * time.Second
	FuelDatesEqualThresholdStarbase = 7200 * time.Second
)

type StructureState uint

const (
	StructureStateNA StructureState = iota
	StructureStateAnchorVulnerable
	StructureStateAnchoring
	StructureStateArmorReinforce
	StructureStateArmorVulnerable
	StructureStateDeployVulnerable
	StructureStateFittingInvulnerable
	StructureStateHullReinforce
	StructureStateHullVulnerable
	StructureStateOnlineDeprecated
	StructureStateOnliningVulnerable
	StructureStateShieldVulnerable
	StructureStateUnanchored
	StructureStateUnknown
	StructureStatePosOffline
	StructureStatePosOnline
	StructureStatePosOnlining
	StructureStatePosReinforced
	StructureStatePosUnanchoring
)

func (ss StructureState) String() string {
	m := map[StructureState]string{
		StructureStateNA:                  "N/A",
		StructureStateAnchorVulnerable:    "anchor vulnerable",
		StructureStateAnchoring:           "anchoring",
		StructureStateArmorReinforce:      "armor reinforce",
		StructureStateArmorVulnerable:     "armor vulnerable",
		StructureStateDeployVulnerable:    "deploy vulnerable",
		StructureStateFittingInvulnerable: "fitting invulnerable",
		StructureStateHullReinforce:       "hull reinforce",
		StructureStateHullVulnerable:      "hull vulnerable",
		StructureStateOnlineDeprecated:    "online deprecated",
		StructureStateOnliningVulnerable:  "onlining vulnerable",
		StructureStateShieldVulnerable:    "shield vulnerable",
		StructureStateUnanchored:          "unanchored",
		StructureStateUnknown:             "unknown",
		StructureStatePosOffline:          "offline",
		StructureStatePosOnline:           "online",
		StructureStatePosOnlining:         "onlining",
		StructureStatePosReinforced:       "reinforced",
		StructureStatePosUnanchoring:      "unanchoring",
	}
	return m[ss]
}

func (ss StructureState) Display() string {
	titler := cases.Title(language.English)
	return titler.String(ss.String())
}

// StructureStateFromESIName returns the state matching an ESI state name
// for both Upwell structures and starbases.
func StructureStateFromESIName(name string) StructureState {
	m := map[string]StructureState{
		"anchor_vulnerable":    StructureStateAnchorVulnerable,
		"anchoring":            StructureStateAnchoring,
		"armor_reinforce":      StructureStateArmorReinforce,
		"armor_vulnerable":     StructureStateArmorVulnerable,
		"deploy_vulnerable":    StructureStateDeployVulnerable,
		"fitting_invulnerable": StructureStateFittingInvulnerable,
		"hull_reinforce":       StructureStateHullReinforce,
		"hull_vulnerable":      StructureStateHullVulnerable,
		"online_deprecated":    StructureStateOnlineDeprecated,
		"onlining_vulnerable":  StructureStateOnliningVulnerable,
		"shield_vulnerable":    StructureStateShieldVulnerable,
		"unanchored":           StructureStateUnanchored,
		"offline":              StructureStatePosOffline,
		"online":               StructureStatePosOnline,
		"onlining":             StructureStatePosOnlining,
		"reinforced":           StructureStatePosReinforced,
		"unanchoring ":         StructureStatePosUnanchoring, // trailing space as returned by ESI
	}
	s, ok := m[name]
	if !ok {
		return StructureStateUnknown
	}
	return s
}

// PowerMode is the power mode of an Upwell structure.
type PowerMode uint

const (
	PowerModeUndefined PowerMode = iota
	PowerModeFullPower
	PowerModeLowPower
	PowerModeAbandoned
	PowerModeLowAbandoned
	PowerModeUnknown
)

func (pm PowerMode) String() string {
	switch pm {
	case PowerModeFullPower:
		return "Full Power"
	case PowerModeLowPower:
		return "Low Power"
	case PowerModeAbandoned:
		return "Abandoned"
	case PowerModeLowAbandoned:
		return "Abandoned?"
	case PowerModeUnknown:
		return "Unknown"
	}
	return ""
}

// Structure is a player owned structure: an Upwell structure, a customs office or a starbase.
type Structure struct {
	FuelExpires   optional.Optional[time.Time]
	LastOnline    optional.Optional[time.Time]
	Moon          *EveMoon
	Name          string
	OwnerID       int32
	Planet        *EvePlanet
	Position      optional.Optional[Position]
	ReinforceHour optional.Optional[int64]
	State         StructureState
	StateTimerEnd optional.Optional[time.Time]
	StructureID   int64
	System        *EveSolarSystem
	Type          *EveType
	UnanchorsAt   optional.Optional[time.Time]
	// Webhooks overrides the owner's webhooks for notifications related to this structure.
	WebhookIDs []int64
}

func (s Structure) IsUpwellStructure() bool {
	return s.Type != nil && s.Type.IsUpwellStructure()
}

func (s Structure) IsStarbase() bool {
	return s.Type != nil && s.Type.IsStarbase()
}

// PowerMode returns the current power mode of a structure.
// It is calculated from fuel expiry, last online date and state
// and returns undefined for non Upwell structures.
func (s Structure) PowerMode() PowerMode {
	if !s.IsUpwellStructure() {
		return PowerModeUndefined
	}
	if t, err := s.FuelExpires.Value(); err == nil && t.After(time.Now()) {
		return PowerModeFullPower
	}
	if t, err := s.LastOnline.Value(); err == nil {
		if !isOlderThan(t, 7*24*time.Hour) {
			return PowerModeLowPower
		}
		return PowerModeAbandoned
	}
	if s.State == StructureStateAnchoring || s.State == StructureStateAnchorVulnerable {
		return PowerModeLowPower
	}
	return PowerModeLowAbandoned
}

// IsReinforced reports whether a structure is currently reinforced.
func (s Structure) IsReinforced() bool {
	switch s.State {
	case StructureStateArmorReinforce,
		StructureStateHullReinforce,
		StructureStateAnchorVulnerable,
		StructureStateHullVulnerable,
		StructureStatePosReinforced:
		return true
	}
	return false
}

// IsBurningFuel reports whether a structure is currently consuming fuel.
func (s Structure) IsBurningFuel() bool {
	if s.IsUpwellStructure() {
		return s.PowerMode() == PowerModeFullPower
	}
	if s.IsStarbase() {
		switch s.State {
		case StructureStatePosOnline, StructureStatePosReinforced, StructureStatePosUnanchoring:
			return true
		}
	}
	return false
}

// LocationName returns the name of the location of a structure,
// preferring the most specific one known.
func (s Structure) LocationName() string {
	if s.Moon != nil {
		return s.Moon.Name
	}
	if s.Planet != nil {
		return s.Planet.Name
	}
	if s.System != nil {
		return s.System.Name
	}
	return "?"
}

// HoursFuelExpires returns the hours until the structure runs out of fuel.
func (s Structure) HoursFuelExpires(now time.Time) optional.Optional[float64] {
	t, err := s.FuelExpires.Value()
	if err != nil {
		return optional.Optional[float64]{}
	}
	return optional.New(t.Sub(now).Hours())
}

// IsFuelExpiryDateDifferent reports whether the fuel expiry date of other
// differs beyond the estimation noise threshold.
func (s Structure) IsFuelExpiryDateDifferent(other Structure) bool {
	threshold := FuelDatesEqualThresholdUpwell
	if !s.IsUpwellStructure() {
		threshold = FuelDatesEqualThresholdStarbase
	}
	if s.FuelExpires.IsEmpty() && other.FuelExpires.IsEmpty() {
		return false
	}
	if s.FuelExpires.IsEmpty() || other.FuelExpires.IsEmpty() {
		return true
	}
	d := s.FuelExpires.ValueOrZero().Sub(other.FuelExpires.ValueOrZero())
	if d < 0 {
		d = -d
	}
	return d > threshold
}

var structureNamePattern = regexp.MustCompile(`^\S+ - (.+)`)

// StructureNameFromESIName extracts the structure name from the name in an ESI response,
// which is prefixed with the solar system name.
func StructureNameFromESIName(esiName string) string {
	m := structureNamePattern.FindStringSubmatch(esiName)
	if m == nil {
		return esiName
	}
	return m[1]
}

// StructureItem is an item stored in a structure, e.g. fuel blocks in the fuel bay.
type StructureItem struct {
	ID           int64
	StructureID  int64
	Type         *EveType
	LocationFlag string
	Quantity     int
	IsSingleton  bool
}

// Location flags of structure items.
const (
	LocationFlagStructureFuel = "StructureFuel"
)
