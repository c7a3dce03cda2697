package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

// eventTypeIDToName returns a structure name for a campaign event type ID.
func (br baseRenderer) eventTypeIDToName(ctx context.Context, eventType int32) (string, error) {
	var typeID int32
	switch eventType {
	case 1:
		typeID = app.EveTypeTCU
	case 2:
		typeID = app.EveTypeIHUB
	default:
		return "?", nil
	}
	structureType, err := br.eus.GetOrCreateEntityESI(ctx, typeID)
	if err != nil {
		return "", err
	}
	return structureType.Name, nil
}

type allAnchoringMsg struct {
	baseRenderer
}

func (n allAnchoringMsg) entityIDs(text string) (setInt32, error) {
	var data notification2.AllAnchoringMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	ids := set.Of(data.CorpID)
	if data.AllianceID != 0 {
		ids.Add(data.AllianceID)
	}
	return ids, nil
}

func (n allAnchoringMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.AllAnchoringMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	corporation, err := n.eus.GetOrCreateEntityESI(ctx, data.CorpID)
	if err != nil {
		return renderResult{}, err
	}
	structureType, err := n.eus.GetOrCreateTypeESI(ctx, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	var location string
	if data.MoonID != 0 {
		moon, err := n.eus.GetOrCreateMoonESI(ctx, data.MoonID)
		if err != nil {
			return renderResult{}, err
		}
		location = fmt.Sprintf("at %s in %s", moon.Name, makeSolarSystemLink(moon.SolarSystem))
	} else {
		solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
		if err != nil {
			return renderResult{}, err
		}
		location = fmt.Sprintf("in %s", makeSolarSystemLink(solarSystem))
	}
	return renderResult{
		title: fmt.Sprintf("%s anchored in alliance space", structureType.Name),
		body: fmt.Sprintf(
			"A %s from %s has anchored %s.",
			structureType.Name,
			makeEveEntityProfileLink(corporation),
			location,
		),
		thumbnail: makeTypeIconURL(structureType.ID),
	}, nil
}

type entosisCaptureStarted struct {
	baseRenderer
}

func (n entosisCaptureStarted) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.EntosisCaptureStarted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	structureType, err := n.eus.GetOrCreateEntityESI(ctx, data.StructureTypeID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s is being captured", structureType.Name, solarSystem.Name),
		body: fmt.Sprintf(
			"A capsuleer has started to influence the **%s** in %s with an Entosis Link.",
			structureType.Name,
			makeSolarSystemLink(solarSystem),
		),
		thumbnail: makeTypeIconURL(structureType.ID),
	}, nil
}

type sovAllClaimAcquiredMsg struct {
	baseRenderer
}

func (n sovAllClaimAcquiredMsg) entityIDs(text string) (setInt32, error) {
	var data notification.SovAllClaimAquiredMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CorpID), nil
}

func (n sovAllClaimAcquiredMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.SovAllClaimAquiredMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	corporation, err := n.eus.GetOrCreateEntityESI(ctx, data.CorpID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("DED Sovereignty claim acknowledgement: %s", solarSystem.Name),
		body: fmt.Sprintf(
			"This mail is your confirmation that DED now officially acknowledges "+
				"that your member organization %s has claimed sovereignty "+
				"on your behalf in the system %s.",
			makeEveEntityProfileLink(corporation),
			makeSolarSystemLink(solarSystem),
		),
		thumbnail: makeEveEntityIconURL(corporation),
	}, nil
}

type sovAllClaimLostMsg struct {
	baseRenderer
}

func (n sovAllClaimLostMsg) entityIDs(text string) (setInt32, error) {
	var data notification.SovAllClaimLostMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CorpID), nil
}

func (n sovAllClaimLostMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.SovAllClaimLostMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	corporation, err := n.eus.GetOrCreateEntityESI(ctx, data.CorpID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Lost sovereignty in: %s", solarSystem.Name),
		body: fmt.Sprintf(
			"DED acknowledges that your member organization %s has lost its claim "+
				"to sovereignty on your behalf in the system %s.",
			makeEveEntityProfileLink(corporation),
			makeSolarSystemLink(solarSystem),
		),
		thumbnail: makeEveEntityIconURL(corporation),
	}, nil
}

type sovCommandNodeEventStarted struct {
	baseRenderer
}

func (n sovCommandNodeEventStarted) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.SovCommandNodeEventStarted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	structureTypeName, err := n.eventTypeIDToName(ctx, data.CampaignEventType)
	if err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"Command nodes for %s in %s have begun to decloak",
			structureTypeName,
			solarSystem.Name,
		),
		body: fmt.Sprintf(
			"Command nodes for %s in %s can now be found throughout the **%s** constellation",
			structureTypeName,
			makeSolarSystemLink(solarSystem),
			solarSystem.Constellation.Name,
		),
	}, nil
}

type sovStructureDestroyed struct {
	baseRenderer
}

func (n sovStructureDestroyed) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.SovStructureDestroyed
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	structureType, err := n.eus.GetOrCreateEntityESI(ctx, data.StructureTypeID)
	if err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has been destroyed", structureType.Name, solarSystem.Name),
		body: fmt.Sprintf(
			"The command nodes for %s in %s have been destroyed by hostile forces.",
			structureType.Name,
			makeSolarSystemLink(solarSystem),
		),
		thumbnail: makeTypeIconURL(structureType.ID),
	}, nil
}

type sovStructureReinforced struct {
	baseRenderer
}

func (n sovStructureReinforced) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.SovStructureReinforced
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	structureTypeName, err := n.eventTypeIDToName(ctx, data.CampaignEventType)
	if err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has entered reinforced mode", structureTypeName, solarSystem.Name),
		body: fmt.Sprintf(
			"The %s in %s has been reinforced by hostile forces "+
				"and command nodes will begin decloaking at **%s**.",
			structureTypeName,
			makeSolarSystemLink(solarSystem),
			fromLDAPTime(data.DecloakTime).Format(app.DateTimeFormat),
		),
	}, nil
}
