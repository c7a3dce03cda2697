package evenotification

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type eveObj struct {
	ID   int
	Name string
}

type structureInfo struct {
	eveType     eveObj
	intro       string
	name        string
	owner       eveObj
	solarSystem eveObj
	thumbnail   string
}

// makeStructureBaseText builds the common intro text for structure notifications.
// Locally tracked structures contribute their current name and owner.
func (br baseRenderer) makeStructureBaseText(ctx context.Context, typeID, systemID int32, structureID int64, structureName string) (structureInfo, error) {
	var eveType *app.EveType
	var err error
	if typeID != 0 {
		eveType, err = br.eus.GetOrCreateTypeESI(ctx, typeID)
		if err != nil {
			return structureInfo{}, err
		}
	}
	system, err := br.eus.GetOrCreateSolarSystemESI(ctx, systemID)
	if err != nil {
		return structureInfo{}, err
	}
	var ownerLink string
	var owner *app.EveEntity
	if s := br.getStructure(ctx, structureID); s != nil {
		if structureName == "" {
			structureName = s.Name
		}
		if s.OwnerID != 0 {
			owner, err = br.eus.GetOrCreateEntityESI(ctx, s.OwnerID)
			if err != nil {
				return structureInfo{}, err
			}
			ownerLink = makeEveEntityProfileLink(owner)
		}
	}
	var name string
	if eveType != nil {
		if eveType.IsOrbital() && structureName != "" {
			name = fmt.Sprintf("**%s**", structureName)
		} else if structureName != "" {
			name = fmt.Sprintf("%s **%s**", eveType.Name, structureName)
		} else {
			name = eveType.Name
		}
	} else if structureName != "" {
		name = structureName
	} else {
		name = "unknown structure"
	}
	text := fmt.Sprintf("The %s in %s", name, makeSolarSystemLink(system))
	if ownerLink != "" {
		text += fmt.Sprintf(" belonging to %s", ownerLink)
	}
	x := structureInfo{
		solarSystem: eveObj{ID: int(system.ID), Name: system.Name},
		name:        structureName,
		intro:       text,
	}
	if eveType != nil {
		x.eveType.ID = int(eveType.ID)
		x.eveType.Name = eveType.Name
		x.thumbnail = makeTypeIconURL(eveType.ID)
	}
	if x.name == "" && eveType != nil {
		x.name = eveType.Name
	}
	if owner != nil {
		x.owner.ID = int(owner.ID)
		x.owner.Name = owner.Name
	}
	return x, nil
}

type ownershipTransferred struct {
	baseRenderer
}

func (n ownershipTransferred) entityIDs(text string) (setInt32, error) {
	_, ids, err := n.unmarshal(text)
	if err != nil {
		return setInt32{}, err
	}
	return ids, nil
}

func (n ownershipTransferred) unmarshal(text string) (notification.OwnershipTransferredV2, setInt32, error) {
	var data notification.OwnershipTransferredV2
	if strings.Contains(text, "newOwnerCorpID") {
		if err := yaml.Unmarshal([]byte(text), &data); err != nil {
			return data, setInt32{}, err
		}
	} else {
		var data2 notification.OwnershipTransferred
		if err := yaml.Unmarshal([]byte(text), &data2); err != nil {
			return data, setInt32{}, err
		}
		data.CharID = int32(data2.CharacterLinkData[2].(uint64))
		data.NewOwnerCorpID = int32(data2.ToCorporationLinkData[2].(uint64))
		data.OldOwnerCorpID = int32(data2.FromCorporationLinkData[2].(uint64))
		data.SolarSystemID = int32(data2.SolarSystemLinkData[2].(uint64))
		data.StructureID = int64(data2.StructureLinkData[2].(uint64))
		data.StructureTypeID = int32(data2.StructureLinkData[1].(uint64))
		data.StructureName = data2.StructureName
	}
	ids := set.Of(data.OldOwnerCorpID, data.NewOwnerCorpID, data.CharID)
	return data, ids, nil
}

func (n ownershipTransferred) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	d, ids, err := n.unmarshal(text)
	if err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, ids)
	if err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, d.StructureTypeID, d.SolarSystemID, d.StructureID, d.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s ownership has been transferred to %s",
			d.StructureName,
			entities[d.NewOwnerCorpID].Name,
		),
		body: fmt.Sprintf(
			"%s has been transferred from %s to %s by %s.",
			o.intro,
			makeEveEntityProfileLink(entities[d.OldOwnerCorpID]),
			makeEveEntityProfileLink(entities[d.NewOwnerCorpID]),
			makeEveEntityProfileLink(entities[d.CharID]),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureAnchoring struct {
	baseRenderer
}

func (n structureAnchoring) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureAnchoring
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title:     fmt.Sprintf("A %s has started anchoring in %s", o.eveType.Name, o.solarSystem.Name),
		body:      fmt.Sprintf("%s has started anchoring.", o.intro),
		thumbnail: o.thumbnail,
	}, nil
}

type structureDestroyed struct {
	baseRenderer
}

func (n structureDestroyed) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureDestroyed
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has been destroyed", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has been destroyed. Items located inside the structure are available for transfer to asset safety.",
			o.intro,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureFuelAlert struct {
	baseRenderer
}

func (n structureFuelAlert) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureFuelAlert
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	body := fmt.Sprintf("%s is low on fuel.", o.intro)
	if s := n.getStructure(ctx, data.StructureID); s != nil && !s.FuelExpires.IsEmpty() {
		body += fmt.Sprintf(" Fuel runs out at **%s**.", s.FuelExpires.MustValue().Format(app.DateTimeFormat))
	}
	return renderResult{
		title:     fmt.Sprintf("%s in %s is low on fuel", o.name, o.solarSystem.Name),
		body:      body,
		thumbnail: o.thumbnail,
	}, nil
}

type structureJumpFuelAlert struct {
	baseRenderer
}

func (n structureJumpFuelAlert) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.StructureJumpFuelAlert
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.TypeID, data.SolarSystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s is low on jump fuel", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s is below %d units of Liquid Ozone. Remaining: **%d** units.",
			o.intro,
			data.Threshold,
			data.Quantity,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureRefueledExtra struct {
	baseRenderer
}

func (n structureRefueledExtra) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.StructureRefueledExtra
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.TypeID, data.SolarSystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has been refueled", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has been refueled. Fuel will last until **%s**.",
			o.intro,
			fromLDAPTime(data.FuelExpires).Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureLostArmor struct {
	baseRenderer
}

func (n structureLostArmor) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureLostArmor
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has lost it's armor", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has lost it's armor. Hull timer ends at **%s**.",
			o.intro,
			timestamp.Add(fromLDAPDuration(data.TimeLeft)).Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureLostShields struct {
	baseRenderer
}

func (n structureLostShields) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureLostShields
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has lost it's shields", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has lost it's shields and is now in reinforcement state. "+
				"It will exit reinforcement at **%s** and will then be vulnerable for 15 minutes.",
			o.intro,
			timestamp.Add(fromLDAPDuration(data.TimeLeft)).Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureOnline struct {
	baseRenderer
}

func (n structureOnline) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureOnline
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title:     fmt.Sprintf("%s in %s is now online", o.name, o.solarSystem.Name),
		body:      fmt.Sprintf("%s is now online.", o.intro),
		thumbnail: o.thumbnail,
	}, nil
}

type structuresReinforcementChanged struct {
	baseRenderer
}

func (n structuresReinforcementChanged) entityIDs(text string) (setInt32, error) {
	_, ids, err := n.unmarshal(text)
	if err != nil {
		return setInt32{}, err
	}
	return ids, nil
}

func (n structuresReinforcementChanged) unmarshal(text string) (notification.StructuresReinforcementChanged, setInt32, error) {
	var data notification.StructuresReinforcementChanged
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return data, setInt32{}, err
	}
	var ids setInt32
	for _, r := range data.AllStructureInfo {
		ids.Add(int32(r[2].(uint64)))
	}
	return data, ids, nil
}

type structureReinforcementInfo struct {
	structureID int64
	name        string
	typeID      int32
}

func (n structuresReinforcementChanged) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	data, typeIDs, err := n.unmarshal(text)
	if err != nil {
		return renderResult{}, err
	}
	structures := make([]structureReinforcementInfo, 0)
	for _, r := range data.AllStructureInfo {
		s := structureReinforcementInfo{
			structureID: int64(r[0].(uint64)),
			name:        r[1].(string),
			typeID:      int32(r[2].(uint64)),
		}
		structures = append(structures, s)
	}
	slices.SortFunc(structures, func(a structureReinforcementInfo, b structureReinforcementInfo) int {
		return cmp.Compare(a.name, b.name)
	})
	entities, err := n.eus.ToEntities(ctx, typeIDs)
	if err != nil {
		return renderResult{}, err
	}
	lines := make([]string, 0)
	for _, o := range structures {
		lines = append(lines, fmt.Sprintf("- %s (%s)", o.name, entities[o.typeID].Name))
	}
	return renderResult{
		title: "Structure reinforcement time changed",
		body: fmt.Sprintf(
			"Reinforcement hour has been changed to %d:00 "+
				"for the following structures:\n\n%s",
			data.Hour,
			strings.Join(lines, "\n\n"),
		),
	}, nil
}

type structureServicesOffline struct {
	baseRenderer
}

func (n structureServicesOffline) entityIDs(text string) (setInt32, error) {
	_, ids, err := n.unmarshal(text)
	if err != nil {
		return setInt32{}, err
	}
	return ids, nil
}

func (n structureServicesOffline) unmarshal(text string) (notification.StructureServicesOffline, setInt32, error) {
	var data notification.StructureServicesOffline
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return data, setInt32{}, err
	}
	ids := set.Of(data.ListOfServiceModuleIDs...)
	return data, ids, nil
}

func (n structureServicesOffline) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	data, ids, err := n.unmarshal(text)
	if err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, ids)
	if err != nil {
		return renderResult{}, err
	}
	lines := make([]string, 0)
	for e := range maps.Values(entities) {
		lines = append(lines, fmt.Sprintf("- %s", e.Name))
	}
	slices.Sort(lines)
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s in %s has all services off-lined", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has all services off-lined.\n\n%s",
			o.intro,
			strings.Join(lines, "\n\n"),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureUnanchoring struct {
	baseRenderer
}

func (n structureUnanchoring) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureUnanchoring
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	due := timestamp.Add(fromLDAPDuration(data.TimeLeft))
	return renderResult{
		title: fmt.Sprintf("%s has started unanchoring in %s", o.name, o.solarSystem.Name),
		body: fmt.Sprintf(
			"%s has started un-anchoring. It will be fully un-anchored at: %s",
			o.intro,
			due.Format(app.DateTimeFormat),
		),
		thumbnail: o.thumbnail,
	}, nil
}

type structureUnderAttack struct {
	baseRenderer
}

func (n structureUnderAttack) entityIDs(text string) (setInt32, error) {
	_, ids, err := n.unmarshal(text)
	if err != nil {
		return setInt32{}, err
	}
	return ids, nil
}

func (n structureUnderAttack) unmarshal(text string) (notification.StructureUnderAttack, setInt32, error) {
	var data notification.StructureUnderAttack
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return data, setInt32{}, err
	}
	ids := set.Of(data.CharID)
	return data, ids, nil
}

func (n structureUnderAttack) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	data, _, err := n.unmarshal(text)
	if err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	attackChar, err := n.eus.GetOrCreateEntityESI(ctx, data.CharID)
	if err != nil {
		return renderResult{}, err
	}
	t := fmt.Sprintf("%s is under attack.\n\n"+
		"Attacking Character: %s\n\n"+
		"Attacking Corporation: %s",
		o.intro,
		makeEveEntityProfileLink(attackChar),
		makeCorporationLink(data.CorpName),
	)
	if data.AllianceName != "" {
		t += fmt.Sprintf(
			"\n\nAttacking Alliance: %s",
			makeAllianceLink(data.AllianceName),
		)
	}
	return renderResult{
		title:     fmt.Sprintf("%s in %s is under attack", o.name, o.solarSystem.Name),
		body:      t,
		thumbnail: o.thumbnail,
	}, nil
}

type structureWentHighPower struct {
	baseRenderer
}

func (n structureWentHighPower) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureWentHighPower
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title:     fmt.Sprintf("%s is now running on High Power", o.name),
		body:      fmt.Sprintf("%s went to high power mode.", o.intro),
		thumbnail: o.thumbnail,
	}, nil
}

type structureWentLowPower struct {
	baseRenderer
}

func (n structureWentLowPower) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.StructureWentLowPower
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeStructureBaseText(ctx, data.StructureTypeID, data.SolarsystemID, data.StructureID, "")
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title:     fmt.Sprintf("%s is now running on Low Power", o.name),
		body:      fmt.Sprintf("%s went to low power mode.", o.intro),
		thumbnail: o.thumbnail,
	}, nil
}
