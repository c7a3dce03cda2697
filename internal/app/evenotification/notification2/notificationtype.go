// Package notification2 contains type definitions to unmarshal Eve notifications from ESI.
// It extends the notification package from goesi and also defines the payloads
// for locally generated notification types.
package notification2

type AllAnchoringMsg struct {
	AllianceID    int32 `yaml:"allianceID"`
	CorpID        int32 `yaml:"corpID"`
	MoonID        int32 `yaml:"moonID"`
	SolarSystemID int32 `yaml:"solarSystemID"`
	TypeID        int32 `yaml:"typeID"`
}

// AllyJoinedWarMsg is the payload of the AllyJoinedWarAggressorMsg,
// AllyJoinedWarAllyMsg and AllyJoinedWarDefenderMsg notification types.
type AllyJoinedWarMsg struct {
	AggressorID int32 `yaml:"aggressorID"`
	AllyID      int32 `yaml:"allyID"`
	DefenderID  int32 `yaml:"defenderID"`
	StartTime   int64 `yaml:"startTime"`
}

// StructureJumpFuelAlert is the payload of the generated jump fuel notification.
type StructureJumpFuelAlert struct {
	Quantity      int32 `yaml:"quantity"`
	SolarSystemID int32 `yaml:"solarsystemID"`
	StructureID   int64 `yaml:"structureID"`
	Threshold     int32 `yaml:"threshold"`
	TypeID        int32 `yaml:"typeID"`
}

// StructureRefueledExtra is the payload of the generated refueled notification.
type StructureRefueledExtra struct {
	FuelExpires   int64 `yaml:"fuelExpires"`
	SolarSystemID int32 `yaml:"solarsystemID"`
	StructureID   int64 `yaml:"structureID"`
	TypeID        int32 `yaml:"typeID"`
}

// TowerRefueledExtra is the payload of the generated refueled notification for starbases.
type TowerRefueledExtra struct {
	FuelExpires   int64 `yaml:"fuelExpires"`
	MoonID        int32 `yaml:"moonID"`
	SolarSystemID int32 `yaml:"solarsystemID"`
	StructureID   int64 `yaml:"structureID"`
	TypeID        int32 `yaml:"typeID"`
}

// TowerReinforcedExtra is the payload of the generated reinforcement notification for starbases.
type TowerReinforcedExtra struct {
	MoonID          int32 `yaml:"moonID"`
	ReinforcedUntil int64 `yaml:"reinforcedUntil"`
	SolarSystemID   int32 `yaml:"solarsystemID"`
	StructureID     int64 `yaml:"structureID"`
	TypeID          int32 `yaml:"typeID"`
}

type WarSurrenderOfferMsg struct {
	IskValue float64 `yaml:"iskValue"`
	OwnerID1 int32   `yaml:"ownerID1"`
	OwnerID2 int32   `yaml:"ownerID2"`
}
