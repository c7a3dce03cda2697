package ownerservice

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

// relatedStructurePayload carries the fields which link a notification to structures.
type relatedStructurePayload struct {
	MoonID      int32 `yaml:"moonID"`
	PlanetID    int32 `yaml:"planetID"`
	StructureID int64 `yaml:"structureID"`
	TypeID      int32 `yaml:"typeID"`
}

// notificationTypesWithStructureID are the types which carry the structure ID directly.
var notificationTypesWithStructureID = map[app.NotificationType]bool{
	app.MoonminingAutomaticFracture:   true,
	app.MoonminingExtractionCancelled: true,
	app.MoonminingExtractionFinished:  true,
	app.MoonminingExtractionStarted:   true,
	app.MoonminingLaserFired:          true,
	app.OwnershipTransferred:          true,
	app.StructureAnchoring:            true,
	app.StructureDestroyed:            true,
	app.StructureFuelAlert:            true,
	app.StructureJumpFuelAlert:        true,
	app.StructureLostArmor:            true,
	app.StructureLostShields:          true,
	app.StructureOnline:               true,
	app.StructureRefueledExtra:        true,
	app.StructureServicesOffline:      true,
	app.StructureUnanchoring:          true,
	app.StructureUnderAttack:          true,
	app.StructureWentHighPower:        true,
	app.StructureWentLowPower:         true,
}

// relevantWebhooks returns the webhooks a notification should be delivered to, ordered by ID.
//
// When the notification relates to tracked structures and those structures
// agree on a single non-empty webhook configuration,
// that configuration overrides the webhooks of the owner.
func (s *OwnerService) relevantWebhooks(ctx context.Context, owner *app.Owner, n *app.Notification) ([]*app.Webhook, error) {
	nt, ok := n.NotificationType()
	if !ok {
		return nil, nil
	}
	webhookIDs := owner.WebhookIDs
	if nt.IsStructureRelated() {
		structures, err := s.relatedStructures(ctx, owner, nt, n.Text)
		if err != nil {
			return nil, err
		}
		if ids, ok := singleWebhookConfiguration(structures); ok {
			webhookIDs = ids
		}
	}
	webhooks, err := s.st.ListWebhooksForIDs(ctx, webhookIDs)
	if err != nil {
		return nil, err
	}
	selected := make([]*app.Webhook, 0)
	for _, w := range webhooks {
		if w.IsActive && w.WantsNotificationType(nt) {
			selected = append(selected, w)
		}
	}
	slices.SortFunc(selected, func(a, b *app.Webhook) int {
		return int(a.ID - b.ID)
	})
	return selected, nil
}

// singleWebhookConfiguration reports whether the structures share exactly one
// distinct non-empty webhook configuration and returns it.
func singleWebhookConfiguration(structures []*app.Structure) ([]int64, bool) {
	distinct := make(map[string][]int64)
	for _, o := range structures {
		if len(o.WebhookIDs) == 0 {
			continue
		}
		ids := slices.Clone(o.WebhookIDs)
		slices.Sort(ids)
		key := fmt.Sprint(ids)
		distinct[key] = ids
	}
	if len(distinct) != 1 {
		return nil, false
	}
	for _, ids := range distinct {
		return ids, true
	}
	return nil, false
}

// relatedStructures returns the tracked structures a notification relates to.
// Unknown structures are ignored.
func (s *OwnerService) relatedStructures(ctx context.Context, owner *app.Owner, nt app.NotificationType, text string) ([]*app.Structure, error) {
	switch {
	case notificationTypesWithStructureID[nt]:
		var data relatedStructurePayload
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return nil, err
		}
		if data.StructureID == 0 {
			return nil, nil
		}
		o, err := s.st.GetStructure(ctx, data.StructureID)
		if errors.Is(err, app.ErrNotFound) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		return []*app.Structure{o}, nil

	case nt == app.StructuresReinforcementChanged:
		var data notification.StructuresReinforcementChanged
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return nil, err
		}
		structures := make([]*app.Structure, 0)
		for _, r := range data.AllStructureInfo {
			if len(r) == 0 {
				continue
			}
			id, ok := asInt64(r[0])
			if !ok {
				continue
			}
			o, err := s.st.GetStructure(ctx, id)
			if errors.Is(err, app.ErrNotFound) {
				continue
			} else if err != nil {
				return nil, err
			}
			structures = append(structures, o)
		}
		return structures, nil

	case nt == app.OrbitalAttacked || nt == app.OrbitalReinforced:
		var data relatedStructurePayload
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return nil, err
		}
		return s.filterStructures(ctx, owner, func(o *app.Structure) bool {
			return o.Planet != nil && o.Planet.ID == data.PlanetID &&
				o.Type != nil && o.Type.ID == data.TypeID
		})

	case nt == app.TowerAlertMsg || nt == app.TowerResourceAlertMsg || nt == app.TowerRefueledExtra:
		var data relatedStructurePayload
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return nil, err
		}
		return s.filterStructures(ctx, owner, func(o *app.Structure) bool {
			return o.Moon != nil && o.Moon.ID == data.MoonID &&
				o.Type != nil && o.Type.ID == data.TypeID
		})
	}
	return nil, nil
}

func (s *OwnerService) filterStructures(ctx context.Context, owner *app.Owner, keep func(*app.Structure) bool) ([]*app.Structure, error) {
	structures, err := s.st.ListStructuresForOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	selected := make([]*app.Structure, 0)
	for _, o := range structures {
		if keep(o) {
			selected = append(selected, o)
		}
	}
	return selected, nil
}

// isNPCAttack reports whether an attack notification originates from an NPC corporation.
// Attacks from NPC starter corporations count as player attacks,
// because wardeccable entities can hide in them.
func (s *OwnerService) isNPCAttack(ctx context.Context, nt app.NotificationType, text string) (bool, error) {
	var corporationID int32
	switch nt {
	case app.OrbitalAttacked:
		var data notification.OrbitalAttacked
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return false, err
		}
		corporationID = data.AggressorCorpID
	case app.StructureUnderAttack:
		var data notification.StructureUnderAttack
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return false, err
		}
		if len(data.CorpLinkData) >= 3 {
			if id, ok := asInt64(data.CorpLinkData[2]); ok {
				corporationID = int32(id)
			}
		}
	default:
		return false, nil
	}
	if corporationID == 0 {
		return false, nil
	}
	corporation, err := s.eus.GetOrCreateEntityESI(ctx, corporationID)
	if err != nil {
		return false, err
	}
	return corporation.IsNPC().ValueOrZero() && !corporation.IsNPCStarterCorporation(), nil
}

// shouldForward applies the alliance level gate.
// Alliance level notifications are forwarded by the alliance main only,
// so members of the same alliance do not duplicate them.
func shouldForward(owner *app.Owner, nt app.NotificationType) bool {
	if nt.IsAllianceLevel() && owner.Alliance != nil && !owner.IsAllianceMain {
		return false
	}
	return true
}

// asInt64 converts a number from a decoded YAML sequence.
func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case uint64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	return 0, false
}
