// Package timerservice derives structure timers from notifications
// and forwards them to registered timer sinks.
package timerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// TimerService creates and removes timers for reinforcement and
// moon mining notifications. Timers are delivered to all registered sinks.
type TimerService struct {
	cfg   app.Config
	eus   *eveuniverseservice.EveUniverseService
	st    *storage.Storage
	sinks []app.TimerSink
}

type Params struct {
	Config             app.Config
	EveUniverseService *eveuniverseservice.EveUniverseService
	Storage            *storage.Storage
	Sinks              []app.TimerSink
}

// New returns a new instance of a timer service.
func New(args Params) *TimerService {
	s := &TimerService{
		cfg:   args.Config,
		eus:   args.EveUniverseService,
		st:    args.Storage,
		sinks: args.Sinks,
	}
	return s
}

// HasSinks reports whether any timer sink is registered.
// Without sinks notification processing is a no-op.
func (s *TimerService) HasSinks() bool {
	return len(s.sinks) > 0
}

// ProcessNotification creates or removes timers for a notification
// and reports whether any timer was processed.
// Notifications of types that can not carry timers are ignored.
func (s *TimerService) ProcessNotification(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	nt, ok := n.NotificationType()
	if !ok || !nt.IsTimerRelevant() {
		return false, nil
	}
	if !s.HasSinks() {
		return false, nil
	}
	var processed bool
	var err error
	switch nt {
	case app.StructureLostShields:
		processed, err = s.addStructureReinforcementTimer(ctx, owner, n, app.TimerTypeArmor)
	case app.StructureLostArmor:
		processed, err = s.addStructureReinforcementTimer(ctx, owner, n, app.TimerTypeHull)
	case app.SovStructureReinforced:
		processed, err = s.addSovReinforcementTimer(ctx, owner, n)
	case app.OrbitalReinforced:
		processed, err = s.addOrbitalReinforcementTimer(ctx, owner, n)
	case app.MoonminingExtractionStarted:
		if s.cfg.MoonExtractionTimersEnabled {
			processed, err = s.addMoonExtractionTimer(ctx, owner, n)
		}
	case app.MoonminingExtractionCancelled:
		if s.cfg.MoonExtractionTimersEnabled {
			processed, err = s.removeMoonExtractionTimer(ctx, owner, n)
		}
	case app.TowerReinforcedExtra:
		processed, err = s.addTowerReinforcementTimer(ctx, owner, n)
	}
	if err != nil {
		return false, fmt.Errorf("process notification %d for timers: %w", n.NotificationID, err)
	}
	if processed {
		slog.Info("Processed timer for notification", "owner", owner.Name(), "notificationID", n.NotificationID, "type", n.Type)
	}
	return processed, nil
}

func (s *TimerService) addStructureReinforcementTimer(ctx context.Context, owner *app.Owner, n *app.Notification, timerType app.TimerType) (bool, error) {
	var data notification.StructureLostShields
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	structureName := ""
	structure, err := s.st.GetStructure(ctx, data.StructureID)
	if err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			return false, err
		}
	} else {
		structureName = structure.Name
	}
	t := app.Timer{
		Date:             n.Timestamp.Add(app.FromLDAPDuration(data.TimeLeft)),
		Details:          makeTimerDetails(owner, n),
		IsCorpRestricted: s.cfg.TimersCorpRestricted,
		Objective:        app.ObjectiveFriendly,
		OwnerName:        owner.Name(),
		SolarSystemID:    data.SolarsystemID,
		StructureName:    structureName,
		StructureTypeID:  optional.New(data.StructureTypeID),
		Type:             timerType,
	}
	return s.addTimer(ctx, t)
}

func (s *TimerService) addSovReinforcementTimer(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	if !owner.IsAllianceMain {
		return false, nil
	}
	var data notification.SovStructureReinforced
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	t := app.Timer{
		Date:             app.FromLDAPTime(data.DecloakTime),
		Details:          makeTimerDetails(owner, n),
		IsCorpRestricted: s.cfg.TimersCorpRestricted,
		Objective:        app.ObjectiveFriendly,
		OwnerName:        owner.Name(),
		SolarSystemID:    data.SolarSystemID,
		Type:             app.TimerTypeFinal,
	}
	switch data.CampaignEventType {
	case 1:
		t.StructureTypeID = optional.New(int32(app.EveTypeTCU))
	case 2:
		t.StructureTypeID = optional.New(int32(app.EveTypeIHUB))
	}
	return s.addTimer(ctx, t)
}

func (s *TimerService) addOrbitalReinforcementTimer(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	var data notification.OrbitalReinforced
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	planet, err := s.eus.GetOrCreatePlanetESI(ctx, data.PlanetID)
	if err != nil {
		return false, err
	}
	t := app.Timer{
		Date:             app.FromLDAPTime(data.ReinforceExitTime),
		Details:          makeTimerDetails(owner, n),
		IsCorpRestricted: s.cfg.TimersCorpRestricted,
		Location:         planet.Name,
		Objective:        app.ObjectiveFriendly,
		OwnerName:        owner.Name(),
		SolarSystemID:    planet.SolarSystem.ID,
		StructureName:    "Customs Office",
		StructureTypeID:  optional.New(int32(app.EveTypeCustomsOffice)),
		Type:             app.TimerTypeFinal,
	}
	return s.addTimer(ctx, t)
}

func (s *TimerService) addMoonExtractionTimer(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	var data notification.MoonminingExtractionStarted
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	moon, err := s.eus.GetOrCreateMoonESI(ctx, data.MoonID)
	if err != nil {
		return false, err
	}
	t := app.Timer{
		Date:             app.FromLDAPTime(data.ReadyTime),
		Details:          makeTimerDetails(owner, n),
		IsCorpRestricted: s.cfg.TimersCorpRestricted,
		Location:         moon.Name,
		MoonID:           optional.New(data.MoonID),
		Objective:        app.ObjectiveFriendly,
		OwnerName:        owner.Name(),
		SolarSystemID:    moon.SolarSystem.ID,
		StructureName:    data.StructureName,
		StructureTypeID:  optional.New(data.StructureTypeID),
		Type:             app.TimerTypeMoonMining,
	}
	return s.addTimer(ctx, t)
}

// removeMoonExtractionTimer removes the timer of the most recent matching
// extraction start. A cancel without a previously added timer is still
// reported as processed so it is not retried.
func (s *TimerService) removeMoonExtractionTimer(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	var data notification.MoonminingExtractionCancelled
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	started, err := s.st.ListNotificationsOfType(ctx, owner.ID, string(app.MoonminingExtractionStarted))
	if err != nil {
		return false, err
	}
	var found bool
	for _, o := range started {
		if !o.IsTimerAdded.ValueOrZero() || o.Timestamp.After(n.Timestamp) {
			continue
		}
		var data2 notification.MoonminingExtractionStarted
		if err := yaml.Unmarshal([]byte(o.Text), &data2); err != nil {
			return false, err
		}
		if data2.StructureTypeID == data.StructureTypeID && data2.MoonID == data.MoonID {
			found = true
			break
		}
	}
	if !found {
		return true, nil
	}
	moon, err := s.eus.GetOrCreateMoonESI(ctx, data.MoonID)
	if err != nil {
		return false, err
	}
	for _, sink := range s.sinks {
		if err := sink.DeleteTimer(ctx, moon.SolarSystem.ID, data.MoonID, data.StructureName); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *TimerService) addTowerReinforcementTimer(ctx context.Context, owner *app.Owner, n *app.Notification) (bool, error) {
	var data notification2.TowerReinforcedExtra
	if err := yaml.Unmarshal([]byte(n.Text), &data); err != nil {
		return false, err
	}
	t := app.Timer{
		Date:             app.FromLDAPTime(data.ReinforcedUntil),
		Details:          makeTimerDetails(owner, n),
		IsCorpRestricted: s.cfg.TimersCorpRestricted,
		MoonID:           optional.New(data.MoonID),
		Objective:        app.ObjectiveFriendly,
		OwnerName:        owner.Name(),
		SolarSystemID:    data.SolarSystemID,
		StructureTypeID:  optional.New(data.TypeID),
		Type:             app.TimerTypeFinal,
	}
	structure, err := s.st.GetStructure(ctx, data.StructureID)
	if err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			return false, err
		}
	} else {
		t.StructureName = structure.Name
		if structure.Moon != nil {
			t.Location = structure.Moon.Name
		}
	}
	return s.addTimer(ctx, t)
}

func (s *TimerService) addTimer(ctx context.Context, t app.Timer) (bool, error) {
	for _, sink := range s.sinks {
		if err := sink.AddTimer(ctx, t); err != nil {
			return false, err
		}
	}
	return true, nil
}

func makeTimerDetails(owner *app.Owner, n *app.Notification) string {
	return fmt.Sprintf(
		"Created from notification for %s at %s",
		owner.Name(),
		n.Timestamp.UTC().Format(app.DateTimeFormat),
	)
}
