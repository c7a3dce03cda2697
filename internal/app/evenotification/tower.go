package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type towerInfo struct {
	type_     *app.EveType
	moon      *app.EveMoon
	intro     string
	thumbnail string
}

func (br baseRenderer) makeTowerBaseText(ctx context.Context, moonID, typeID int32) (towerInfo, error) {
	structureType, err := br.eus.GetOrCreateTypeESI(ctx, typeID)
	if err != nil {
		return towerInfo{}, err
	}
	moon, err := br.eus.GetOrCreateMoonESI(ctx, moonID)
	if err != nil {
		return towerInfo{}, err
	}
	intro := fmt.Sprintf("The %s at %s in %s", structureType.Name, moon.Name, makeSolarSystemLink(moon.SolarSystem))
	x := towerInfo{
		type_:     structureType,
		moon:      moon,
		intro:     intro,
		thumbnail: makeTypeIconURL(structureType.ID),
	}
	return x, nil
}

type towerAlertMsg struct {
	baseRenderer
}

func (n towerAlertMsg) entityIDs(text string) (setInt32, error) {
	_, ids, err := n.unmarshal(text)
	if err != nil {
		return setInt32{}, err
	}
	return ids, nil
}

func (n towerAlertMsg) unmarshal(text string) (notification.TowerAlertMsg, setInt32, error) {
	var data notification.TowerAlertMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return data, setInt32{}, err
	}
	ids := set.Of(data.AggressorCorpID, data.AggressorID)
	if data.AggressorAllianceID != 0 {
		ids.Add(data.AggressorAllianceID)
	}
	return data, ids, nil
}

func (n towerAlertMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	data, ids, err := n.unmarshal(text)
	if err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, ids)
	if err != nil {
		return renderResult{}, err
	}
	o, err := n.makeTowerBaseText(ctx, data.MoonID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	b := fmt.Sprintf(
		"%s is under attack.\n\n"+
			"Shield: %.0f%%, Armor: %.0f%%, Hull: %.0f%%\n\n"+
			"Attacking Character: %s\n\n"+
			"Attacking Corporation: %s",
		o.intro,
		data.ShieldValue*100,
		data.ArmorValue*100,
		data.HullValue*100,
		makeEveEntityProfileLink(entities[data.AggressorID]),
		makeEveEntityProfileLink(entities[data.AggressorCorpID]),
	)
	if data.AggressorAllianceID != 0 {
		b += fmt.Sprintf(
			"\n\nAttacking Alliance: %s",
			makeEveEntityProfileLink(entities[data.AggressorAllianceID]),
		)
	}
	return renderResult{
		title:     fmt.Sprintf("Starbase at %s is under attack", o.moon.Name),
		body:      b,
		thumbnail: o.thumbnail,
	}, nil
}

type towerResourceAlertMsg struct {
	baseRenderer
}

func (n towerResourceAlertMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.TowerResourceAlertMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeTowerBaseText(ctx, data.MoonID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	b := fmt.Sprintf("%s is running out of fuel in less then 24hrs.", o.intro)
	if len(data.Wants) > 0 {
		quantity := int(data.Wants[0].Quantity)
		b += fmt.Sprintf("\n\nFuel remaining: %s units", humanize.Comma(int64(quantity)))
		duration, err := o.type_.StarbaseFuelDuration(quantity, false)
		if err == nil && !duration.IsEmpty() {
			b += fmt.Sprintf(", lasting approx. **%.1f** hours", duration.MustValue()/3600)
		}
	}
	return renderResult{
		title:     fmt.Sprintf("Starbase at %s is running out of fuel", o.moon.Name),
		body:      b,
		thumbnail: o.thumbnail,
	}, nil
}

type towerRefueledExtra struct {
	baseRenderer
}

func (n towerRefueledExtra) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.TowerRefueledExtra
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeTowerBaseText(ctx, data.MoonID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Starbase at %s has been refueled", o.moon.Name),
		body: fmt.Sprintf(
			"%s has been refueled. Fuel will last until **%s**.",
			o.intro,
			fromLDAPTime(data.FuelExpires).Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type towerReinforcedExtra struct {
	baseRenderer
}

func (n towerReinforcedExtra) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.TowerReinforcedExtra
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeTowerBaseText(ctx, data.MoonID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Starbase at %s has been reinforced", o.moon.Name),
		body: fmt.Sprintf(
			"%s has been reinforced. The reinforcement ends at **%s**.",
			o.intro,
			fromLDAPTime(data.ReinforcedUntil).Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}
