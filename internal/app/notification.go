package app

import (
	"strings"
	"time"
	"unicode"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

// NotificationType represents a notification type in Eve Online.
type NotificationType string

const (
	// upwell structures
	OwnershipTransferred           NotificationType = "OwnershipTransferred"
	StructureAnchoring             NotificationType = "StructureAnchoring"
	StructureDestroyed             NotificationType = "StructureDestroyed"
	StructureFuelAlert             NotificationType = "StructureFuelAlert"
	StructureJumpFuelAlert         NotificationType = "StructureJumpFuelAlert"
	StructureLostArmor             NotificationType = "StructureLostArmor"
	StructureLostShields           NotificationType = "StructureLostShields"
	StructureOnline                NotificationType = "StructureOnline"
	StructureRefueledExtra         NotificationType = "StructureRefueledExtra"
	StructureServicesOffline       NotificationType = "StructureServicesOffline"
	StructureUnanchoring           NotificationType = "StructureUnanchoring"
	StructureUnderAttack           NotificationType = "StructureUnderAttack"
	StructureWentHighPower         NotificationType = "StructureWentHighPower"
	StructureWentLowPower          NotificationType = "StructureWentLowPower"
	StructuresReinforcementChanged NotificationType = "StructuresReinforcementChanged"

	// customs offices
	OrbitalAttacked   NotificationType = "OrbitalAttacked"
	OrbitalReinforced NotificationType = "OrbitalReinforced"

	// starbases
	TowerAlertMsg         NotificationType = "TowerAlertMsg"
	TowerRefueledExtra    NotificationType = "TowerRefueledExtra"
	TowerReinforcedExtra  NotificationType = "TowerReinforcedExtra"
	TowerResourceAlertMsg NotificationType = "TowerResourceAlertMsg"

	// moon mining
	MoonminingAutomaticFracture   NotificationType = "MoonminingAutomaticFracture"
	MoonminingExtractionCancelled NotificationType = "MoonminingExtractionCancelled"
	MoonminingExtractionFinished  NotificationType = "MoonminingExtractionFinished"
	MoonminingExtractionStarted   NotificationType = "MoonminingExtractionStarted"
	MoonminingLaserFired          NotificationType = "MoonminingLaserFired"

	// sovereignty
	AllAnchoringMsg            NotificationType = "AllAnchoringMsg"
	EntosisCaptureStarted      NotificationType = "EntosisCaptureStarted"
	SovAllClaimAcquiredMsg     NotificationType = "SovAllClaimAquiredMsg" // typo is intentional, see ESI
	SovAllClaimLostMsg         NotificationType = "SovAllClaimLostMsg"
	SovCommandNodeEventStarted NotificationType = "SovCommandNodeEventStarted"
	SovStructureDestroyed      NotificationType = "SovStructureDestroyed"
	SovStructureReinforced     NotificationType = "SovStructureReinforced"

	// wars
	AllyJoinedWarAggressorMsg NotificationType = "AllyJoinedWarAggressorMsg"
	AllyJoinedWarAllyMsg      NotificationType = "AllyJoinedWarAllyMsg"
	AllyJoinedWarDefenderMsg  NotificationType = "AllyJoinedWarDefenderMsg"
	CorpBecameWarEligible     NotificationType = "CorpBecameWarEligible"
	CorpNoLongerWarEligible   NotificationType = "CorpNoLongerWarEligible"
	CorpWarSurrenderMsg       NotificationType = "CorpWarSurrenderMsg"
	WarAdopted                NotificationType = "WarAdopted"
	WarDeclared               NotificationType = "WarDeclared"
	WarInherited              NotificationType = "WarInherited"
	WarRetractedByConcord     NotificationType = "WarRetractedByConcord"
	WarSurrenderOfferMsg      NotificationType = "WarSurrenderOfferMsg"

	// corporation membership
	CharAppAcceptMsg       NotificationType = "CharAppAcceptMsg"
	CharAppWithdrawMsg     NotificationType = "CharAppWithdrawMsg"
	CharLeftCorpMsg        NotificationType = "CharLeftCorpMsg"
	CorpAppInvitedMsg      NotificationType = "CorpAppInvitedMsg"
	CorpAppNewMsg          NotificationType = "CorpAppNewMsg"
	CorpAppRejectCustomMsg NotificationType = "CorpAppRejectCustomMsg"

	// billing
	BillOutOfMoneyMsg                  NotificationType = "BillOutOfMoneyMsg"
	IHubDestroyedByBillFailure         NotificationType = "IHubDestroyedByBillFailure"
	InfrastructureHubBillAboutToExpire NotificationType = "InfrastructureHubBillAboutToExpire"
)

func (nt NotificationType) String() string {
	return string(nt)
}

// Display returns a string representation for display,
// with a space inserted at every word boundary.
func (nt NotificationType) Display() string {
	var b strings.Builder
	var last rune
	for _, r := range string(nt) {
		if unicode.IsUpper(r) && unicode.IsLower(last) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

var notificationTypesSupported = set.Of(
	AllAnchoringMsg,
	AllyJoinedWarAggressorMsg,
	AllyJoinedWarAllyMsg,
	AllyJoinedWarDefenderMsg,
	BillOutOfMoneyMsg,
	CharAppAcceptMsg,
	CharAppWithdrawMsg,
	CharLeftCorpMsg,
	CorpAppInvitedMsg,
	CorpAppNewMsg,
	CorpAppRejectCustomMsg,
	CorpBecameWarEligible,
	CorpNoLongerWarEligible,
	CorpWarSurrenderMsg,
	EntosisCaptureStarted,
	IHubDestroyedByBillFailure,
	InfrastructureHubBillAboutToExpire,
	MoonminingAutomaticFracture,
	MoonminingExtractionCancelled,
	MoonminingExtractionFinished,
	MoonminingExtractionStarted,
	MoonminingLaserFired,
	OrbitalAttacked,
	OrbitalReinforced,
	OwnershipTransferred,
	SovAllClaimAcquiredMsg,
	SovAllClaimLostMsg,
	SovCommandNodeEventStarted,
	SovStructureDestroyed,
	SovStructureReinforced,
	StructureAnchoring,
	StructureDestroyed,
	StructureFuelAlert,
	StructureJumpFuelAlert,
	StructureLostArmor,
	StructureLostShields,
	StructureOnline,
	StructureRefueledExtra,
	StructureServicesOffline,
	StructureUnanchoring,
	StructureUnderAttack,
	StructureWentHighPower,
	StructureWentLowPower,
	StructuresReinforcementChanged,
	TowerAlertMsg,
	TowerRefueledExtra,
	TowerReinforcedExtra,
	TowerResourceAlertMsg,
	WarAdopted,
	WarDeclared,
	WarInherited,
	WarRetractedByConcord,
	WarSurrenderOfferMsg,
)

var notificationTypesGenerated = set.Of(
	StructureJumpFuelAlert,
	StructureRefueledExtra,
	TowerRefueledExtra,
	TowerReinforcedExtra,
)

var notificationTypesTimerRelevant = set.Of(
	MoonminingExtractionCancelled,
	MoonminingExtractionStarted,
	OrbitalReinforced,
	SovStructureReinforced,
	StructureLostArmor,
	StructureLostShields,
	TowerReinforcedExtra,
)

var notificationTypesAllianceLevel = set.Of(
	AllyJoinedWarAggressorMsg,
	AllyJoinedWarAllyMsg,
	AllyJoinedWarDefenderMsg,
	BillOutOfMoneyMsg,
	CorpBecameWarEligible,
	CorpNoLongerWarEligible,
	CorpWarSurrenderMsg,
	EntosisCaptureStarted,
	IHubDestroyedByBillFailure,
	InfrastructureHubBillAboutToExpire,
	SovAllClaimAcquiredMsg,
	SovAllClaimLostMsg,
	SovCommandNodeEventStarted,
	SovStructureDestroyed,
	SovStructureReinforced,
	WarAdopted,
	WarDeclared,
	WarInherited,
	WarRetractedByConcord,
	WarSurrenderOfferMsg,
)

var notificationTypesMoonMining = set.Of(
	MoonminingAutomaticFracture,
	MoonminingExtractionCancelled,
	MoonminingExtractionFinished,
	MoonminingExtractionStarted,
	MoonminingLaserFired,
)

var notificationTypesStructureRelated = set.Of(
	MoonminingAutomaticFracture,
	MoonminingExtractionCancelled,
	MoonminingExtractionFinished,
	MoonminingExtractionStarted,
	MoonminingLaserFired,
	OrbitalAttacked,
	OrbitalReinforced,
	OwnershipTransferred,
	StructureAnchoring,
	StructureDestroyed,
	StructureFuelAlert,
	StructureJumpFuelAlert,
	StructureLostArmor,
	StructureLostShields,
	StructureOnline,
	StructureRefueledExtra,
	StructureServicesOffline,
	StructureUnanchoring,
	StructureUnderAttack,
	StructureWentHighPower,
	StructureWentLowPower,
	StructuresReinforcementChanged,
	TowerAlertMsg,
	TowerRefueledExtra,
	TowerReinforcedExtra,
	TowerResourceAlertMsg,
)

// NotificationTypesSupported returns all supported notification types.
func NotificationTypesSupported() set.Set[NotificationType] {
	return notificationTypesSupported.Clone()
}

// NotificationTypesESI returns the types received from ESI,
// i.e. all supported types which are not generated by this app.
func NotificationTypesESI() set.Set[NotificationType] {
	return set.Difference(notificationTypesSupported, notificationTypesGenerated)
}

// NotificationTypesWebhookDefaults returns the conservative default subscription set for new webhooks.
func NotificationTypesWebhookDefaults() set.Set[NotificationType] {
	return set.Of(
		OrbitalAttacked,
		OrbitalReinforced,
		SovStructureDestroyed,
		SovStructureReinforced,
		StructureAnchoring,
		StructureDestroyed,
		StructureFuelAlert,
		StructureLostArmor,
		StructureLostShields,
		StructureOnline,
		StructureServicesOffline,
		StructureUnderAttack,
		StructureWentHighPower,
		StructureWentLowPower,
		TowerAlertMsg,
		TowerResourceAlertMsg,
	)
}

// NotificationTypesEnabled returns the types enabled under the current config.
func NotificationTypesEnabled(cfg Config) set.Set[NotificationType] {
	s := notificationTypesSupported.Clone()
	if !cfg.RefueledNotificationsEnabled {
		s.Delete(StructureRefueledExtra, TowerRefueledExtra)
	}
	return s
}

// IsSupported reports whether a type is supported by this app.
func (nt NotificationType) IsSupported() bool {
	return notificationTypesSupported.Contains(nt)
}

// IsGenerated reports whether notifications of a type are generated by this app
// rather than received from ESI.
func (nt NotificationType) IsGenerated() bool {
	return notificationTypesGenerated.Contains(nt)
}

// IsTimerRelevant reports whether notifications of a type can create or remove timers.
func (nt NotificationType) IsTimerRelevant() bool {
	return notificationTypesTimerRelevant.Contains(nt)
}

// IsAllianceLevel reports whether a type is only forwarded for the alliance main owner.
func (nt NotificationType) IsAllianceLevel() bool {
	return notificationTypesAllianceLevel.Contains(nt)
}

// IsMoonMining reports whether a type is related to moon mining.
func (nt NotificationType) IsMoonMining() bool {
	return notificationTypesMoonMining.Contains(nt)
}

// IsStructureRelated reports whether notifications of a type relate to one or more structures.
func (nt NotificationType) IsStructureRelated() bool {
	return notificationTypesStructureRelated.Contains(nt)
}

// TemporaryNotificationID marks generated notifications that only exist to drive
// rendering and dispatch. They are never persisted.
const TemporaryNotificationID = 999999999999

// PingType is the ping directive attached to a forwarded notification.
type PingType uint

const (
	PingNone PingType = iota
	PingHere
	PingEveryone
)

func (pt PingType) String() string {
	switch pt {
	case PingHere:
		return "@here"
	case PingEveryone:
		return "@everyone"
	}
	return ""
}

// EmbedColor is the color of a rendered embed. It doubles as a severity level.
type EmbedColor int32

const (
	ColorDanger  EmbedColor = 0xD9534F
	ColorInfo    EmbedColor = 0x5BC0DE
	ColorSuccess EmbedColor = 0x5CB85C
	ColorWarning EmbedColor = 0xF0AD4E
)

// Ping returns the ping type derived from a color.
// This is a total function: colors without ping semantics return no ping.
func (c EmbedColor) Ping() PingType {
	switch c {
	case ColorDanger:
		return PingEveryone
	case ColorWarning:
		return PingHere
	}
	return PingNone
}

// Notification is one event instance received from ESI or generated by this app.
type Notification struct {
	ID             int64
	ColorOverride  optional.Optional[EmbedColor]
	IsRead         bool
	IsSent         bool
	IsTimerAdded   optional.Optional[bool]
	NotificationID int64
	OwnerID        int32
	PingOverride   optional.Optional[PingType]
	Sender         *EveEntity
	Text           string
	Timestamp      time.Time
	Type           string // type tag as received, may be an unsupported type
}

// NotificationType returns the known type of a notification
// and reports whether the type is supported.
func (n *Notification) NotificationType() (NotificationType, bool) {
	nt := NotificationType(n.Type)
	return nt, nt.IsSupported()
}

// IsTemporary reports whether a notification is generated and must not be persisted.
func (n *Notification) IsTemporary() bool {
	return n.NotificationID == TemporaryNotificationID
}

// FromLDAPTime converts an LDAP time from a notification payload to golang time.
func FromLDAPTime(ldapTime int64) time.Time {
	return time.Unix((ldapTime/10000000)-11644473600, 0).UTC()
}

// FromLDAPDuration converts an LDAP duration from a notification payload to golang duration.
func FromLDAPDuration(ldapDuration int64) time.Duration {
	return time.Duration(ldapDuration/10) * time.Microsecond
}

// ToLDAPTime converts golang time to an LDAP time.
func ToLDAPTime(t time.Time) int64 {
	return (t.Unix() + 11644473600) * 10000000
}
