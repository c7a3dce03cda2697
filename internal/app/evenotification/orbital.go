package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type orbitalInfo struct {
	type_     *app.EveType
	planet    *app.EvePlanet
	intro     string
	thumbnail string
}

func (br baseRenderer) makeOrbitalBaseText(ctx context.Context, planetID, typeID int32) (orbitalInfo, error) {
	structureType, err := br.eus.GetOrCreateTypeESI(ctx, typeID)
	if err != nil {
		return orbitalInfo{}, err
	}
	planet, err := br.eus.GetOrCreatePlanetESI(ctx, planetID)
	if err != nil {
		return orbitalInfo{}, err
	}
	intro := fmt.Sprintf(
		"The %s at %s in %s",
		structureType.Name,
		planet.Name,
		makeSolarSystemLink(planet.SolarSystem),
	)
	x := orbitalInfo{
		type_:     structureType,
		planet:    planet,
		intro:     intro,
		thumbnail: makeTypeIconURL(structureType.ID),
	}
	return x, nil
}

type orbitalAttacked struct {
	baseRenderer
}

func (n orbitalAttacked) entityIDs(text string) (setInt32, error) {
	var data notification.OrbitalAttacked
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	ids := set.Of(data.AggressorID, data.AggressorCorpID)
	if data.AggressorAllianceID != 0 {
		ids.Add(data.AggressorAllianceID)
	}
	return ids, nil
}

func (n orbitalAttacked) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.OrbitalAttacked
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeOrbitalBaseText(ctx, data.PlanetID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	ids := set.Of(data.AggressorID, data.AggressorCorpID)
	if data.AggressorAllianceID != 0 {
		ids.Add(data.AggressorAllianceID)
	}
	entities, err := n.eus.ToEntities(ctx, ids)
	if err != nil {
		return renderResult{}, err
	}
	t := fmt.Sprintf("%s is under attack.\n\n"+
		"Attacking Character: %s\n\n"+
		"Attacking Corporation: %s",
		o.intro,
		makeEveEntityProfileLink(entities[data.AggressorID]),
		makeEveEntityProfileLink(entities[data.AggressorCorpID]),
	)
	if data.AggressorAllianceID != 0 {
		t += fmt.Sprintf(
			"\n\nAttacking Alliance: %s",
			makeEveEntityProfileLink(entities[data.AggressorAllianceID]),
		)
	}
	return renderResult{
		title:     fmt.Sprintf("%s at %s is under attack", o.type_.Name, o.planet.Name),
		body:      t,
		thumbnail: o.thumbnail,
	}, nil
}

type orbitalReinforced struct {
	baseRenderer
}

func (n orbitalReinforced) entityIDs(text string) (setInt32, error) {
	var data notification.OrbitalReinforced
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	ids := set.Of(data.AggressorID, data.AggressorCorpID)
	if data.AggressorAllianceID != 0 {
		ids.Add(data.AggressorAllianceID)
	}
	return ids, nil
}

func (n orbitalReinforced) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.OrbitalReinforced
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeOrbitalBaseText(ctx, data.PlanetID, data.TypeID)
	if err != nil {
		return renderResult{}, err
	}
	ids := set.Of(data.AggressorID, data.AggressorCorpID)
	if data.AggressorAllianceID != 0 {
		ids.Add(data.AggressorAllianceID)
	}
	entities, err := n.eus.ToEntities(ctx, ids)
	if err != nil {
		return renderResult{}, err
	}
	t := fmt.Sprintf("%s has been reinforced and will come out at **%s**.\n\n"+
		"Attacking Character: %s\n\n"+
		"Attacking Corporation: %s",
		o.intro,
		fromLDAPTime(data.ReinforceExitTime).Format(app.DateTimeFormat),
		makeEveEntityProfileLink(entities[data.AggressorID]),
		makeEveEntityProfileLink(entities[data.AggressorCorpID]),
	)
	if data.AggressorAllianceID != 0 {
		t += fmt.Sprintf(
			"\n\nAttacking Alliance: %s",
			makeEveEntityProfileLink(entities[data.AggressorAllianceID]),
		)
	}
	return renderResult{
		title:     fmt.Sprintf("%s at %s has been reinforced", o.type_.Name, o.planet.Name),
		body:      t,
		thumbnail: o.thumbnail,
	}, nil
}
