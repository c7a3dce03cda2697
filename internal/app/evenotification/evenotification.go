// Package evenotification contains the business logic for dealing with Eve Online notifications.
//
// It provides a service for rendering the notification types relevant for structure tracking
// into Discord embed content.
package evenotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type EveUniverseService interface {
	GetOrCreateEntityESI(ctx context.Context, id int32) (*app.EveEntity, error)
	GetOrCreateMoonESI(ctx context.Context, id int32) (*app.EveMoon, error)
	GetOrCreatePlanetESI(ctx context.Context, id int32) (*app.EvePlanet, error)
	GetOrCreateSolarSystemESI(ctx context.Context, id int32) (*app.EveSolarSystem, error)
	GetOrCreateTypeESI(ctx context.Context, id int32) (*app.EveType, error)
	ToEntities(ctx context.Context, ids set.Set[int32]) (map[int32]*app.EveEntity, error)
}

// StructureResolver provides access to locally tracked structures,
// so renderers can show current structure names and fuel levels.
type StructureResolver interface {
	// GetStructure returns a tracked structure or [app.ErrNotFound] when unknown.
	GetStructure(ctx context.Context, structureID int64) (*app.Structure, error)
}

type setInt32 = set.Set[int32]

// renderResult is the output of a notification renderer.
type renderResult struct {
	title     string
	body      string
	thumbnail string
}

// notificationRenderer represents the interface every notification renderer needs to conform with.
type notificationRenderer interface {
	// entityIDs returns the Entity IDs used by a notification (if any).
	entityIDs(text string) (setInt32, error)
	// render returns the rendered content for a notification.
	render(ctx context.Context, text string, timestamp time.Time) (renderResult, error)
	// setServices initializes access to backing services and must be called before render().
	setServices(EveUniverseService, StructureResolver)
}

// baseRenderer represents the base renderer for all notification types.
//
// Each notification type has a renderer which can produce the content for a notification.
// In addition the renderer can return the Entity IDs of a notification,
// which allows refetching Entities for multiple notifications in bulk before rendering.
//
// All renderers should embed baseRenderer and implement the render method.
// Renderers that want to return Entity IDs must also overwrite entityIDs.
type baseRenderer struct {
	eus        EveUniverseService
	structures StructureResolver
}

func (br *baseRenderer) setServices(eus EveUniverseService, structures StructureResolver) {
	br.eus = eus
	br.structures = structures
}

// entityIDs returns the Entity IDs used by a notification (if any).
//
// Must be overwritten by a notification renderer that wants to return IDs.
func (br baseRenderer) entityIDs(_ string) (setInt32, error) {
	return setInt32{}, nil
}

// getStructure returns a tracked structure or nil when it is not known locally.
func (br baseRenderer) getStructure(ctx context.Context, structureID int64) *app.Structure {
	if br.structures == nil {
		return nil
	}
	s, err := br.structures.GetStructure(ctx, structureID)
	if err != nil {
		return nil
	}
	return s
}

// Rendered is the rendered content of a notification.
type Rendered struct {
	Body         string
	Color        app.EmbedColor
	ThumbnailURL string
	Title        string
}

// Ping returns the ping type derived from the rendered color.
func (r Rendered) Ping() app.PingType {
	return r.Color.Ping()
}

// EveNotificationService is a service for rendering notifications.
type EveNotificationService struct {
	eus        EveUniverseService
	structures StructureResolver
}

func New(eus EveUniverseService, structures StructureResolver) *EveNotificationService {
	s := &EveNotificationService{eus: eus, structures: structures}
	return s
}

// EntityIDs returns the Entity IDs used in a notification.
// This is useful to resolve Entity IDs in bulk for all notifications,
// before rendering them one by one.
// Returns an empty set when the notification does not use Entity IDs.
// Returns [app.ErrNotFound] for unsupported notification types.
func (s *EveNotificationService) EntityIDs(nt app.NotificationType, text string) (setInt32, error) {
	r, found := s.makeRenderer(nt)
	if !found {
		return setInt32{}, app.ErrNotFound
	}
	return r.entityIDs(text)
}

// Render renders the content for all supported notification types and returns it.
// Returns [app.ErrNotFound] for unsupported notification types.
func (s *EveNotificationService) Render(ctx context.Context, nt app.NotificationType, text string, timestamp time.Time) (Rendered, error) {
	r, found := s.makeRenderer(nt)
	if !found {
		return Rendered{}, app.ErrNotFound
	}
	out, err := r.render(ctx, text, timestamp)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", nt, err)
	}
	return Rendered{
		Body:         out.body,
		Color:        typeColors[nt],
		ThumbnailURL: out.thumbnail,
		Title:        out.title,
	}, nil
}

// typeColors defines the embed color for each supported notification type.
var typeColors = map[app.NotificationType]app.EmbedColor{
	// billing
	app.BillOutOfMoneyMsg:                  app.ColorWarning,
	app.IHubDestroyedByBillFailure:         app.ColorDanger,
	app.InfrastructureHubBillAboutToExpire: app.ColorDanger,
	// corporate
	app.CharAppAcceptMsg:       app.ColorSuccess,
	app.CharAppWithdrawMsg:     app.ColorInfo,
	app.CharLeftCorpMsg:        app.ColorInfo,
	app.CorpAppInvitedMsg:      app.ColorInfo,
	app.CorpAppNewMsg:          app.ColorInfo,
	app.CorpAppRejectCustomMsg: app.ColorInfo,
	// moonmining
	app.MoonminingAutomaticFracture:   app.ColorSuccess,
	app.MoonminingExtractionCancelled: app.ColorWarning,
	app.MoonminingExtractionFinished:  app.ColorInfo,
	app.MoonminingExtractionStarted:   app.ColorInfo,
	app.MoonminingLaserFired:          app.ColorSuccess,
	// orbital
	app.OrbitalAttacked:   app.ColorWarning,
	app.OrbitalReinforced: app.ColorDanger,
	// structures
	app.OwnershipTransferred:           app.ColorInfo,
	app.StructureAnchoring:             app.ColorInfo,
	app.StructureDestroyed:             app.ColorDanger,
	app.StructureFuelAlert:             app.ColorWarning,
	app.StructureJumpFuelAlert:         app.ColorWarning,
	app.StructureLostArmor:             app.ColorDanger,
	app.StructureLostShields:           app.ColorDanger,
	app.StructureOnline:                app.ColorSuccess,
	app.StructureRefueledExtra:         app.ColorInfo,
	app.StructureServicesOffline:       app.ColorDanger,
	app.StructureUnanchoring:           app.ColorInfo,
	app.StructureUnderAttack:           app.ColorDanger,
	app.StructureWentHighPower:         app.ColorSuccess,
	app.StructureWentLowPower:          app.ColorWarning,
	app.StructuresReinforcementChanged: app.ColorInfo,
	// sov
	app.AllAnchoringMsg:            app.ColorWarning,
	app.EntosisCaptureStarted:      app.ColorWarning,
	app.SovAllClaimAcquiredMsg:     app.ColorSuccess,
	app.SovAllClaimLostMsg:         app.ColorSuccess,
	app.SovCommandNodeEventStarted: app.ColorWarning,
	app.SovStructureDestroyed:      app.ColorDanger,
	app.SovStructureReinforced:     app.ColorDanger,
	// tower
	app.TowerAlertMsg:         app.ColorWarning,
	app.TowerRefueledExtra:    app.ColorInfo,
	app.TowerReinforcedExtra:  app.ColorDanger,
	app.TowerResourceAlertMsg: app.ColorWarning,
	// war
	app.AllyJoinedWarAggressorMsg: app.ColorWarning,
	app.AllyJoinedWarAllyMsg:      app.ColorWarning,
	app.AllyJoinedWarDefenderMsg:  app.ColorWarning,
	app.CorpBecameWarEligible:     app.ColorWarning,
	app.CorpNoLongerWarEligible:   app.ColorInfo,
	app.CorpWarSurrenderMsg:       app.ColorWarning,
	app.WarAdopted:                app.ColorWarning,
	app.WarDeclared:               app.ColorDanger,
	app.WarInherited:              app.ColorDanger,
	app.WarRetractedByConcord:     app.ColorWarning,
	app.WarSurrenderOfferMsg:      app.ColorInfo,
}

// Color returns the embed color for a notification type.
func Color(nt app.NotificationType) app.EmbedColor {
	return typeColors[nt]
}

func (s *EveNotificationService) makeRenderer(type_ app.NotificationType) (notificationRenderer, bool) {
	var r notificationRenderer
	switch type_ {
	// billing
	case app.BillOutOfMoneyMsg:
		r = new(billOutOfMoneyMsg)
	case app.InfrastructureHubBillAboutToExpire:
		r = new(infrastructureHubBillAboutToExpire)
	case app.IHubDestroyedByBillFailure:
		r = new(iHubDestroyedByBillFailure)
	// corporate
	case app.CharAppAcceptMsg:
		r = new(charAppAcceptMsg)
	case app.CharAppWithdrawMsg:
		r = new(charAppWithdrawMsg)
	case app.CharLeftCorpMsg:
		r = new(charLeftCorpMsg)
	case app.CorpAppInvitedMsg:
		r = new(corpAppInvitedMsg)
	case app.CorpAppNewMsg:
		r = new(corpAppNewMsg)
	case app.CorpAppRejectCustomMsg:
		r = new(corpAppRejectCustomMsg)
	// moonmining
	case app.MoonminingAutomaticFracture:
		r = new(moonminingAutomaticFracture)
	case app.MoonminingExtractionCancelled:
		r = new(moonminingExtractionCancelled)
	case app.MoonminingExtractionFinished:
		r = new(moonminingExtractionFinished)
	case app.MoonminingExtractionStarted:
		r = new(moonminingExtractionStarted)
	case app.MoonminingLaserFired:
		r = new(moonminingLaserFired)
	// orbital
	case app.OrbitalAttacked:
		r = new(orbitalAttacked)
	case app.OrbitalReinforced:
		r = new(orbitalReinforced)
	// structures
	case app.OwnershipTransferred:
		r = new(ownershipTransferred)
	case app.StructureAnchoring:
		r = new(structureAnchoring)
	case app.StructureDestroyed:
		r = new(structureDestroyed)
	case app.StructureFuelAlert:
		r = new(structureFuelAlert)
	case app.StructureJumpFuelAlert:
		r = new(structureJumpFuelAlert)
	case app.StructureLostArmor:
		r = new(structureLostArmor)
	case app.StructureLostShields:
		r = new(structureLostShields)
	case app.StructureOnline:
		r = new(structureOnline)
	case app.StructureRefueledExtra:
		r = new(structureRefueledExtra)
	case app.StructureServicesOffline:
		r = new(structureServicesOffline)
	case app.StructuresReinforcementChanged:
		r = new(structuresReinforcementChanged)
	case app.StructureUnanchoring:
		r = new(structureUnanchoring)
	case app.StructureUnderAttack:
		r = new(structureUnderAttack)
	case app.StructureWentHighPower:
		r = new(structureWentHighPower)
	case app.StructureWentLowPower:
		r = new(structureWentLowPower)
	// sov
	case app.AllAnchoringMsg:
		r = new(allAnchoringMsg)
	case app.EntosisCaptureStarted:
		r = new(entosisCaptureStarted)
	case app.SovAllClaimAcquiredMsg:
		r = new(sovAllClaimAcquiredMsg)
	case app.SovAllClaimLostMsg:
		r = new(sovAllClaimLostMsg)
	case app.SovCommandNodeEventStarted:
		r = new(sovCommandNodeEventStarted)
	case app.SovStructureDestroyed:
		r = new(sovStructureDestroyed)
	case app.SovStructureReinforced:
		r = new(sovStructureReinforced)
	// tower
	case app.TowerAlertMsg:
		r = new(towerAlertMsg)
	case app.TowerRefueledExtra:
		r = new(towerRefueledExtra)
	case app.TowerReinforcedExtra:
		r = new(towerReinforcedExtra)
	case app.TowerResourceAlertMsg:
		r = new(towerResourceAlertMsg)
	// war
	case app.AllyJoinedWarAggressorMsg, app.AllyJoinedWarAllyMsg, app.AllyJoinedWarDefenderMsg:
		r = new(allyJoinedWarMsg)
	case app.CorpBecameWarEligible:
		r = new(corpBecameWarEligible)
	case app.CorpNoLongerWarEligible:
		r = new(corpNoLongerWarEligible)
	case app.CorpWarSurrenderMsg:
		r = new(corpWarSurrenderMsg)
	case app.WarAdopted:
		r = new(warAdopted)
	case app.WarDeclared:
		r = new(warDeclared)
	case app.WarInherited:
		r = new(warInherited)
	case app.WarRetractedByConcord:
		r = new(warRetractedByConcord)
	case app.WarSurrenderOfferMsg:
		r = new(warSurrenderOfferMsg)
	default:
		return nil, false
	}
	r.setServices(s.eus, s.structures)
	return r, true
}

// fromLDAPTime converts an ldap time to golang time
func fromLDAPTime(ldapTime int64) time.Time {
	return app.FromLDAPTime(ldapTime)
}

// fromLDAPDuration converts an ldap duration to golang duration
func fromLDAPDuration(ldapDuration int64) time.Duration {
	return app.FromLDAPDuration(ldapDuration)
}

type dotlanType = uint

const (
	dotlanAlliance dotlanType = iota
	dotlanCorporation
	dotlanSolarSystem
	dotlanRegion
)

func makeDotLanProfileURL(name string, typ dotlanType) string {
	const baseURL = "https://evemaps.dotlan.net"
	var path string
	m := map[dotlanType]string{
		dotlanAlliance:    "alliance",
		dotlanCorporation: "corp",
		dotlanSolarSystem: "system",
		dotlanRegion:      "region",
	}
	path, ok := m[typ]
	if !ok {
		return name
	}
	name2 := strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s/%s/%s", baseURL, path, name2)
}

func makeSolarSystemLink(ess *app.EveSolarSystem) string {
	x := fmt.Sprintf(
		"%s (%s)",
		makeMarkDownLink(ess.Name, makeDotLanProfileURL(ess.Name, dotlanSolarSystem)),
		ess.Constellation.Region.Name,
	)
	return x
}

func makeCorporationLink(name string) string {
	if name == "" {
		return ""
	}
	return makeMarkDownLink(name, makeDotLanProfileURL(name, dotlanCorporation))
}

func makeAllianceLink(name string) string {
	if name == "" {
		return ""
	}
	return makeMarkDownLink(name, makeDotLanProfileURL(name, dotlanAlliance))
}

func makeEveWhoCharacterURL(id int32) string {
	return fmt.Sprintf("https://evewho.com/character/%d", id)
}

func makeEveEntityProfileLink(o *app.EveEntity) string {
	if o == nil {
		return "?"
	}
	var url string
	switch o.Category {
	case app.EveEntityAlliance:
		url = makeDotLanProfileURL(o.Name, dotlanAlliance)
	case app.EveEntityCharacter:
		url = makeEveWhoCharacterURL(o.ID)
	case app.EveEntityCorporation:
		url = makeDotLanProfileURL(o.Name, dotlanCorporation)
	default:
		return o.Name
	}
	return makeMarkDownLink(o.Name, url)
}

func makeMarkDownLink(label, url string) string {
	return fmt.Sprintf("[%s](%s)", label, url)
}

const iconDefaultSize = 64

func makeTypeIconURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/types/%d/icon?size=%d", id, iconDefaultSize)
}

func makeCorporationLogoURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/corporations/%d/logo?size=%d", id, iconDefaultSize)
}

func makeAllianceLogoURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/alliances/%d/logo?size=%d", id, iconDefaultSize)
}

func makeCharacterPortraitURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/characters/%d/portrait?size=%d", id, iconDefaultSize)
}

func makeEveEntityIconURL(o *app.EveEntity) string {
	if o == nil {
		return ""
	}
	switch o.Category {
	case app.EveEntityAlliance:
		return makeAllianceLogoURL(o.ID)
	case app.EveEntityCharacter:
		return makeCharacterPortraitURL(o.ID)
	case app.EveEntityCorporation:
		return makeCorporationLogoURL(o.ID)
	case app.EveEntityInventoryType:
		return makeTypeIconURL(o.ID)
	}
	return ""
}
