package app

import (
	"cmp"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// Eve Online IDs used by this app.
const (
	EveCategoryOrbital   = 46
	EveCategoryStarbase  = 23
	EveCategoryStructure = 65

	EveGroupControlTower = 365
	EveGroupFuelBlock    = 1136
	EveGroupPlanet       = 7

	EveTypeCustomsOffice = 2233
	EveTypeIHUB          = 32458
	EveTypeJumpGate      = 35841
	EveTypeLiquidOzone   = 16273
	EveTypeTCU           = 32226

	EveCorporationDED = 1000137
)

const (
	npcCorporationIDBegin = 1_000_000
	npcCorporationIDEnd   = 2_000_000
	npcCharacterIDBegin   = 3_000_000
	npcCharacterIDEnd     = 4_000_000
)

// NPC corporations new characters start in. They are exempt from NPC attack filtering.
var starterCorporationIDs = map[int32]bool{
	1000044: true, // School of Applied Knowledge
	1000045: true, // Science and Trade Institute
	1000077: true, // Royal Amarr Institute
	1000115: true, // University of Caille
	1000165: true, // Hedion University
	1000166: true, // Imperial Academy
	1000167: true, // State War Academy
	1000168: true, // Federal Navy Academy
	1000169: true, // Center for Advanced Studies
	1000170: true, // Republic Military School
	1000171: true, // Republic University
	1000172: true, // Pator Tech School
}

// An EveEntity in EveOnline.
type EveEntity struct {
	Category EveEntityCategory
	ID       int32
	Name     string
}

func (ee EveEntity) CategoryDisplay() string {
	titler := cases.Title(language.English)
	return titler.String(ee.Category.String())
}

// IsCharacter reports whether an entity is a character.
func (ee EveEntity) IsCharacter() bool {
	return ee.Category == EveEntityCharacter
}

// IsNPC reports whether an entity is a NPC.
//
// This function only works for characters and corporations and returns an empty value for anything else.
func (ee EveEntity) IsNPC() optional.Optional[bool] {
	switch ee.Category {
	case EveEntityCharacter:
		return optional.New(ee.ID >= npcCharacterIDBegin && ee.ID < npcCharacterIDEnd)
	case EveEntityCorporation:
		return optional.New(ee.ID >= npcCorporationIDBegin && ee.ID < npcCorporationIDEnd)
	}
	return optional.Optional[bool]{}
}

// IsNPCStarterCorporation reports whether an entity is one of the NPC starter corporations.
func (ee EveEntity) IsNPCStarterCorporation() bool {
	return ee.Category == EveEntityCorporation && starterCorporationIDs[ee.ID]
}

func (ee *EveEntity) Compare(other *EveEntity) int {
	return cmp.Compare(ee.Name, other.Name)
}

type EveEntityCategory int

// Supported categories of EveEntity
const (
	EveEntityUndefined EveEntityCategory = iota
	EveEntityAlliance
	EveEntityCharacter
	EveEntityConstellation
	EveEntityCorporation
	EveEntityFaction
	EveEntityInventoryType
	EveEntityRegion
	EveEntitySolarSystem
	EveEntityStation
	EveEntityUnknown
)

// IsKnown reports whether a category is known.
func (eec EveEntityCategory) IsKnown() bool {
	return eec != EveEntityUndefined && eec != EveEntityUnknown
}

func (eec EveEntityCategory) String() string {
	switch eec {
	case EveEntityUndefined:
		return "undefined"
	case EveEntityAlliance:
		return "alliance"
	case EveEntityCharacter:
		return "character"
	case EveEntityConstellation:
		return "constellation"
	case EveEntityCorporation:
		return "corporation"
	case EveEntityFaction:
		return "faction"
	case EveEntityInventoryType:
		return "inventory type"
	case EveEntityRegion:
		return "region"
	case EveEntitySolarSystem:
		return "solar system"
	case EveEntityStation:
		return "station"
	case EveEntityUnknown:
		return "unknown"
	default:
		return "?"
	}
}

// EveEntityCategoryFromESICategory returns the category for an ESI category string.
func EveEntityCategoryFromESICategory(c string) EveEntityCategory {
	m := map[string]EveEntityCategory{
		"alliance":       EveEntityAlliance,
		"character":      EveEntityCharacter,
		"constellation":  EveEntityConstellation,
		"corporation":    EveEntityCorporation,
		"faction":        EveEntityFaction,
		"inventory_type": EveEntityInventoryType,
		"region":         EveEntityRegion,
		"solar_system":   EveEntitySolarSystem,
		"station":        EveEntityStation,
	}
	c2, ok := m[c]
	if !ok {
		return EveEntityUnknown
	}
	return c2
}

// EveCategory is a category in Eve Online.
type EveCategory struct {
	ID          int32
	IsPublished bool
	Name        string
}

// EveGroup is a group in Eve Online.
type EveGroup struct {
	ID          int32
	Category    *EveCategory
	IsPublished bool
	Name        string
}

// EveType is a type in Eve Online.
type EveType struct {
	ID          int32
	Group       *EveGroup
	Description string
	IsPublished bool
	Name        string
}

// IsUpwellStructure reports whether a type is an Upwell structure.
func (et EveType) IsUpwellStructure() bool {
	return et.Group != nil && et.Group.Category != nil && et.Group.Category.ID == EveCategoryStructure
}

// IsStarbase reports whether a type is a starbase control tower.
func (et EveType) IsStarbase() bool {
	return et.Group != nil && et.Group.ID == EveGroupControlTower
}

// IsOrbital reports whether a type is an orbital structure, e.g. a customs office.
func (et EveType) IsOrbital() bool {
	return et.Group != nil && et.Group.Category != nil && et.Group.Category.ID == EveCategoryOrbital
}

func (et EveType) IsFuelBlock() bool {
	return et.Group != nil && et.Group.ID == EveGroupFuelBlock
}

func (et EveType) ToEveEntity() *EveEntity {
	return &EveEntity{ID: et.ID, Name: et.Name, Category: EveEntityInventoryType}
}

// StarbaseSize represents the size of a starbase.
type StarbaseSize uint

const (
	StarbaseSizeUndefined StarbaseSize = iota
	StarbaseSizeSmall
	StarbaseSizeMedium
	StarbaseSizeLarge
)

// Size returns the size of a starbase type or undefined for other types.
func (et EveType) Size() StarbaseSize {
	if !et.IsStarbase() {
		return StarbaseSizeUndefined
	}
	n := strings.ToLower(et.Name)
	switch {
	case strings.Contains(n, "medium"):
		return StarbaseSizeMedium
	case strings.Contains(n, "small"):
		return StarbaseSizeSmall
	}
	return StarbaseSizeLarge
}

// StarbaseFuelPerHour returns the number of fuel blocks a starbase burns per hour
// or an empty value for other types.
func (et EveType) StarbaseFuelPerHour() optional.Optional[int] {
	switch et.Size() {
	case StarbaseSizeLarge:
		return optional.New(40)
	case StarbaseSizeMedium:
		return optional.New(20)
	case StarbaseSizeSmall:
		return optional.New(10)
	}
	return optional.Optional[int]{}
}

// StarbaseFuelDuration returns how long the given amount of fuel lasts in a starbase.
//
// Owning sovereignty in the system reduces fuel consumption by 25%.
func (et EveType) StarbaseFuelDuration(fuelQuantity int, hasSov bool) (optional.Optional[float64], error) {
	perHour, err := et.StarbaseFuelPerHour().Value()
	if err != nil {
		return optional.Optional[float64]{}, err
	}
	discount := 0.0
	if hasSov {
		discount = 0.25
	}
	seconds := math.Floor(3600 * float64(fuelQuantity) / (float64(perHour) * (1 - discount)))
	return optional.New(seconds), nil
}

// EveRegion is a region in Eve Online.
type EveRegion struct {
	ID   int32
	Name string
}

// EveConstellation is a constellation in Eve Online.
type EveConstellation struct {
	ID     int32
	Name   string
	Region *EveRegion
}

// EveSolarSystem is a solar system in Eve Online.
type EveSolarSystem struct {
	Constellation  *EveConstellation
	ID             int32
	Name           string
	SecurityStatus float32
}

func (es EveSolarSystem) ToEveEntity() *EveEntity {
	return &EveEntity{ID: es.ID, Name: es.Name, Category: EveEntitySolarSystem}
}

// EveMoon is a moon in Eve Online.
type EveMoon struct {
	ID          int32
	Name        string
	SolarSystem *EveSolarSystem
}

// EvePlanet is a planet in Eve Online.
type EvePlanet struct {
	ID          int32
	Name        string
	SolarSystem *EveSolarSystem
	Type        *EveType
}

// EveSovereignty is the sovereignty status of a solar system.
type EveSovereignty struct {
	SolarSystemID int32
	AllianceID    optional.Optional[int32]
	CorporationID optional.Optional[int32]
	FactionID     optional.Optional[int32]
}
