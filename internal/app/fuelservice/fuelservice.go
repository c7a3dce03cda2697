// Package fuelservice generates fuel related notifications for structures.
//
// It watches fuel expiry changes reported by the owner sync, schedules
// low fuel alerts along configured checkpoint windows and tracks
// liquid ozone levels in jump gates.
package fuelservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
)

// Dispatcher forwards generated notifications to the configured webhooks.
type Dispatcher interface {
	SendGeneratedNotification(ctx context.Context, n *app.Notification) error
}

// FuelService creates fuel alerts and refueled notifications.
type FuelService struct {
	// Now returns the current time in UTC. Can be overwritten for tests.
	Now func() time.Time

	cfg        app.Config
	dispatcher Dispatcher
	eus        *eveuniverseservice.EveUniverseService
	st         *storage.Storage
}

type Params struct {
	Config             app.Config
	EveUniverseService *eveuniverseservice.EveUniverseService
	Storage            *storage.Storage
}

// New returns a new instance of a fuel service.
// A dispatcher must be set with SetDispatcher before notifications can be sent.
func New(args Params) *FuelService {
	s := &FuelService{
		cfg: args.Config,
		eus: args.EveUniverseService,
		st:  args.Storage,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
	return s
}

// SetDispatcher sets the dispatcher for generated notifications.
func (s *FuelService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// HandleFuelExpiryChange processes a changed fuel expiry date of a structure.
// When the fuel level of a burning structure has changed beyond the estimation
// noise threshold all current fuel alert markers are removed, so alerts fire
// again for the new expiry date. A later expiry date also produces
// a refueled notification when that feature is enabled.
func (s *FuelService) HandleFuelExpiryChange(ctx context.Context, old, current app.Structure) error {
	if current.FuelExpires.IsEmpty() {
		return nil
	}
	if !current.IsBurningFuel() || !old.IsBurningFuel() || !current.IsFuelExpiryDateDifferent(old) {
		return nil
	}
	slog.Info(
		"Structure fuel level changed. Removing current fuel alerts",
		"structureID", current.StructureID,
		"old", old.FuelExpires,
		"new", current.FuelExpires,
	)
	if err := s.st.DeleteFuelAlertsForStructure(ctx, current.StructureID); err != nil {
		return fmt.Errorf("handle fuel expiry change %d: %w", current.StructureID, err)
	}
	if !s.cfg.RefueledNotificationsEnabled {
		return nil
	}
	if !old.FuelExpires.IsEmpty() && !old.FuelExpires.MustValue().Before(current.FuelExpires.MustValue()) {
		return nil
	}
	slog.Info("Structure has been refueled", "structureID", current.StructureID)
	return s.sendRefueledNotification(ctx, current)
}

func (s *FuelService) sendRefueledNotification(ctx context.Context, structure app.Structure) error {
	fuelExpires := app.ToLDAPTime(structure.FuelExpires.MustValue())
	var nt app.NotificationType
	var payload any
	if structure.IsStarbase() {
		nt = app.TowerRefueledExtra
		payload = notification2.TowerRefueledExtra{
			FuelExpires:   fuelExpires,
			MoonID:        moonID(structure),
			SolarSystemID: structure.System.ID,
			StructureID:   structure.StructureID,
			TypeID:        structure.Type.ID,
		}
	} else {
		nt = app.StructureRefueledExtra
		payload = notification2.StructureRefueledExtra{
			FuelExpires:   fuelExpires,
			SolarSystemID: structure.System.ID,
			StructureID:   structure.StructureID,
			TypeID:        structure.Type.ID,
		}
	}
	n, err := s.makeNotification(ctx, structure, nt, payload)
	if err != nil {
		return err
	}
	return s.dispatcher.SendGeneratedNotification(ctx, n)
}

// CheckFuelAlerts sends due fuel alerts for all burning structures.
// Each checkpoint of a config window fires at most once per structure,
// tracked through stored markers.
func (s *FuelService) CheckFuelAlerts(ctx context.Context, configs []app.FuelAlertConfig) error {
	if len(configs) == 0 {
		return nil
	}
	structures, err := s.st.ListStructures(ctx)
	if err != nil {
		return fmt.Errorf("check fuel alerts: %w", err)
	}
	now := s.Now()
	for _, structure := range structures {
		if !structure.IsBurningFuel() || structure.FuelExpires.IsEmpty() {
			continue
		}
		hoursLeft := structure.HoursFuelExpires(now).MustValue()
		for _, c := range configs {
			hours, ok := c.Checkpoint(hoursLeft)
			if !ok {
				continue
			}
			created, err := s.st.GetOrCreateFuelAlert(ctx, structure.StructureID, c.ID, hours)
			if err != nil {
				return fmt.Errorf("check fuel alerts %d: %w", structure.StructureID, err)
			}
			if !created {
				continue
			}
			if err := s.sendFuelAlert(ctx, *structure, c); err != nil {
				return fmt.Errorf("check fuel alerts %d: %w", structure.StructureID, err)
			}
		}
	}
	return nil
}

func (s *FuelService) sendFuelAlert(ctx context.Context, structure app.Structure, c app.FuelAlertConfig) error {
	var nt app.NotificationType
	var payload any
	if structure.IsStarbase() {
		nt = app.TowerResourceAlertMsg
		payload = towerPayload{
			MoonID:      moonID(structure),
			StructureID: structure.StructureID,
			TypeID:      structure.Type.ID,
		}
	} else {
		nt = app.StructureFuelAlert
		payload = structurePayload{
			SolarSystemID:   structure.System.ID,
			StructureID:     structure.StructureID,
			StructureTypeID: structure.Type.ID,
		}
	}
	n, err := s.makeNotification(ctx, structure, nt, payload)
	if err != nil {
		return err
	}
	n.ColorOverride = c.ColorOverride
	n.PingOverride = c.PingOverride
	slog.Info("Sending fuel alert", "structureID", structure.StructureID, "configID", c.ID)
	return s.dispatcher.SendGeneratedNotification(ctx, n)
}

// CheckJumpFuelAlerts sends alerts for jump gates whose liquid ozone level
// dropped below a configured threshold and removes markers that became
// obsolete after a refill.
func (s *FuelService) CheckJumpFuelAlerts(ctx context.Context, configs []app.JumpFuelAlertConfig) error {
	if len(configs) == 0 {
		return nil
	}
	structures, err := s.st.ListStructures(ctx)
	if err != nil {
		return fmt.Errorf("check jump fuel alerts: %w", err)
	}
	for _, structure := range structures {
		if structure.Type == nil || structure.Type.ID != app.EveTypeJumpGate {
			continue
		}
		if !structure.IsBurningFuel() {
			continue
		}
		quantity, err := s.jumpFuelQuantity(ctx, structure.StructureID)
		if err != nil {
			return fmt.Errorf("check jump fuel alerts %d: %w", structure.StructureID, err)
		}
		if quantity == 0 {
			continue
		}
		if err := s.reevaluateJumpFuelAlerts(ctx, structure.StructureID, quantity, configs); err != nil {
			return fmt.Errorf("check jump fuel alerts %d: %w", structure.StructureID, err)
		}
		for _, c := range configs {
			if quantity >= c.Threshold {
				continue
			}
			created, err := s.st.GetOrCreateJumpFuelAlert(ctx, structure.StructureID, c.ID)
			if err != nil {
				return fmt.Errorf("check jump fuel alerts %d: %w", structure.StructureID, err)
			}
			if !created {
				continue
			}
			if err := s.sendJumpFuelAlert(ctx, *structure, c, quantity); err != nil {
				return fmt.Errorf("check jump fuel alerts %d: %w", structure.StructureID, err)
			}
		}
	}
	return nil
}

// reevaluateJumpFuelAlerts removes alert markers with a threshold below the
// current fuel quantity, so those alerts fire again after the next drop.
func (s *FuelService) reevaluateJumpFuelAlerts(ctx context.Context, structureID int64, quantity int, configs []app.JumpFuelAlertConfig) error {
	thresholds := make(map[int64]int)
	for _, c := range configs {
		thresholds[c.ID] = c.Threshold
	}
	alerts, err := s.st.ListJumpFuelAlertsForStructure(ctx, structureID)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		threshold, ok := thresholds[a.ConfigID]
		if ok && threshold >= quantity {
			continue
		}
		if err := s.st.DeleteJumpFuelAlert(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FuelService) sendJumpFuelAlert(ctx context.Context, structure app.Structure, c app.JumpFuelAlertConfig, quantity int) error {
	payload := notification2.StructureJumpFuelAlert{
		Quantity:      int32(quantity),
		SolarSystemID: structure.System.ID,
		StructureID:   structure.StructureID,
		Threshold:     int32(c.Threshold),
		TypeID:        structure.Type.ID,
	}
	n, err := s.makeNotification(ctx, structure, app.StructureJumpFuelAlert, payload)
	if err != nil {
		return err
	}
	n.ColorOverride = c.ColorOverride
	n.PingOverride = c.PingOverride
	slog.Info("Sending jump fuel alert", "structureID", structure.StructureID, "configID", c.ID)
	return s.dispatcher.SendGeneratedNotification(ctx, n)
}

// jumpFuelQuantity returns the total liquid ozone in the fuel bay of a structure.
func (s *FuelService) jumpFuelQuantity(ctx context.Context, structureID int64) (int, error) {
	items, err := s.st.ListStructureItems(ctx, structureID)
	if err != nil {
		return 0, err
	}
	var quantity int
	for _, item := range items {
		if item.LocationFlag != app.LocationFlagStructureFuel {
			continue
		}
		if item.Type == nil || item.Type.ID != app.EveTypeLiquidOzone {
			continue
		}
		quantity += item.Quantity
	}
	return quantity, nil
}

// makeNotification builds a temporary notification from a structure.
// It is dispatched directly and never persisted.
func (s *FuelService) makeNotification(ctx context.Context, structure app.Structure, nt app.NotificationType, payload any) (*app.Notification, error) {
	text, err := yaml.Marshal(payload)
	if err != nil {
		return nil, err
	}
	sender, err := s.eus.GetOrCreateEntityESI(ctx, app.EveCorporationDED)
	if err != nil {
		return nil, err
	}
	n := &app.Notification{
		NotificationID: app.TemporaryNotificationID,
		OwnerID:        structure.OwnerID,
		Sender:         sender,
		Text:           string(text),
		Timestamp:      s.Now(),
		Type:           string(nt),
	}
	return n, nil
}

func moonID(structure app.Structure) int32 {
	if structure.Moon == nil {
		return 0
	}
	return structure.Moon.ID
}

type structurePayload struct {
	SolarSystemID   int32 `yaml:"solarsystemID"`
	StructureID     int64 `yaml:"structureID"`
	StructureTypeID int32 `yaml:"structureTypeID"`
}

type towerPayload struct {
	MoonID      int32 `yaml:"moonID"`
	StructureID int64 `yaml:"structureID"`
	TypeID      int32 `yaml:"typeID"`
}
