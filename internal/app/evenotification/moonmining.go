package evenotification

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type moonMiningInfo struct {
	intro     string
	moonName  string
	thumbnail string
}

func (br baseRenderer) makeMoonMiningBaseText(ctx context.Context, moonID, structureTypeID int32, structureName string) (moonMiningInfo, error) {
	moon, err := br.eus.GetOrCreateMoonESI(ctx, moonID)
	if err != nil {
		return moonMiningInfo{}, err
	}
	x := moonMiningInfo{
		intro: fmt.Sprintf(
			"for **%s** at %s in %s",
			structureName,
			moon.Name,
			makeSolarSystemLink(moon.SolarSystem),
		),
		moonName: moon.Name,
	}
	if structureTypeID != 0 {
		x.thumbnail = makeTypeIconURL(structureTypeID)
	}
	return x, nil
}

// makeOreText renders the ore composition of a chunk as markdown list.
func (br baseRenderer) makeOreText(ctx context.Context, oreVolumeByType map[int32]float64) (string, error) {
	if len(oreVolumeByType) == 0 {
		return "", nil
	}
	ids := set.Collect(maps.Keys(oreVolumeByType))
	entities, err := br.eus.ToEntities(ctx, ids)
	if err != nil {
		return "", err
	}
	type oreRow struct {
		name   string
		volume float64
	}
	rows := make([]oreRow, 0, len(oreVolumeByType))
	for id, v := range oreVolumeByType {
		rows = append(rows, oreRow{name: entities[id].Name, volume: v})
	}
	slices.SortFunc(rows, func(a, b oreRow) int {
		if a.volume != b.volume {
			if a.volume > b.volume {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("- %s: %s m3", r.name, humanize.CommafWithDigits(r.volume, 0)))
	}
	return "\nEstimated ore composition:\n" + strings.Join(lines, "\n"), nil
}

type moonminingExtractionStarted struct {
	baseRenderer
}

func (n moonminingExtractionStarted) entityIDs(text string) (setInt32, error) {
	var data notification.MoonminingExtractionStarted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	ids := set.Of(data.StartedBy)
	for id := range data.OreVolumeByType {
		ids.Add(id)
	}
	return ids, nil
}

func (n moonminingExtractionStarted) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.MoonminingExtractionStarted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeMoonMiningBaseText(ctx, data.MoonID, data.StructureTypeID, data.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	startedBy, err := n.eus.GetOrCreateEntityESI(ctx, data.StartedBy)
	if err != nil {
		return renderResult{}, err
	}
	ores, err := n.makeOreText(ctx, data.OreVolumeByType)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Moon mining extraction started at %s", o.moonName),
		body: fmt.Sprintf(
			"A moon mining extraction has been started %s by %s. "+
				"The chunk will be ready on location at **%s** "+
				"and will fracture automatically on **%s**.\n%s",
			o.intro,
			makeEveEntityProfileLink(startedBy),
			fromLDAPTime(data.ReadyTime).Format(app.DateTimeFormat),
			fromLDAPTime(data.AutoTime).Format(app.DateTimeFormat),
			ores,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type moonminingExtractionFinished struct {
	baseRenderer
}

func (n moonminingExtractionFinished) entityIDs(text string) (setInt32, error) {
	var data notification.MoonminingExtractionFinished
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	var ids setInt32
	for id := range data.OreVolumeByType {
		ids.Add(id)
	}
	return ids, nil
}

func (n moonminingExtractionFinished) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.MoonminingExtractionFinished
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeMoonMiningBaseText(ctx, data.MoonID, data.StructureTypeID, data.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	ores, err := n.makeOreText(ctx, data.OreVolumeByType)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Moon mining extraction finished at %s", o.moonName),
		body: fmt.Sprintf(
			"The extraction %s is finished and the chunk is ready to be shot at. "+
				"The chunk will automatically fracture on **%s**.\n%s",
			o.intro,
			fromLDAPTime(data.AutoTime).Format(app.DateTimeFormat),
			ores,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type moonminingAutomaticFracture struct {
	baseRenderer
}

func (n moonminingAutomaticFracture) entityIDs(text string) (setInt32, error) {
	var data notification.MoonminingAutomaticFracture
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	var ids setInt32
	for id := range data.OreVolumeByType {
		ids.Add(id)
	}
	return ids, nil
}

func (n moonminingAutomaticFracture) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.MoonminingAutomaticFracture
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeMoonMiningBaseText(ctx, data.MoonID, data.StructureTypeID, data.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	ores, err := n.makeOreText(ctx, data.OreVolumeByType)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Automatic fracture triggered at %s", o.moonName),
		body: fmt.Sprintf(
			"The moon drill fitted %s has automatically been fired "+
				"and the moon products are ready to be harvested.\n%s",
			o.intro,
			ores,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type moonminingExtractionCancelled struct {
	baseRenderer
}

func (n moonminingExtractionCancelled) entityIDs(text string) (setInt32, error) {
	var data notification.MoonminingExtractionCancelled
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	if data.CancelledBy == 0 {
		return setInt32{}, nil
	}
	return set.Of(data.CancelledBy), nil
}

func (n moonminingExtractionCancelled) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.MoonminingExtractionCancelled
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeMoonMiningBaseText(ctx, data.MoonID, data.StructureTypeID, data.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	var by string
	if data.CancelledBy != 0 {
		cancelledBy, err := n.eus.GetOrCreateEntityESI(ctx, data.CancelledBy)
		if err != nil {
			return renderResult{}, err
		}
		by = fmt.Sprintf(" by %s", makeEveEntityProfileLink(cancelledBy))
	}
	return renderResult{
		title: fmt.Sprintf("Moon mining extraction cancelled at %s", o.moonName),
		body: fmt.Sprintf(
			"An ongoing extraction %s has been cancelled%s.",
			o.intro,
			by,
		),
		thumbnail: o.thumbnail,
	}, nil
}

type moonminingLaserFired struct {
	baseRenderer
}

func (n moonminingLaserFired) entityIDs(text string) (setInt32, error) {
	var data notification.MoonminingLaserFired
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	ids := set.Of(data.FiredBy)
	for id := range data.OreVolumeByType {
		ids.Add(id)
	}
	return ids, nil
}

func (n moonminingLaserFired) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.MoonminingLaserFired
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	o, err := n.makeMoonMiningBaseText(ctx, data.MoonID, data.StructureTypeID, data.StructureName)
	if err != nil {
		return renderResult{}, err
	}
	firedBy, err := n.eus.GetOrCreateEntityESI(ctx, data.FiredBy)
	if err != nil {
		return renderResult{}, err
	}
	ores, err := n.makeOreText(ctx, data.OreVolumeByType)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Moon drill fired at %s", o.moonName),
		body: fmt.Sprintf(
			"The moon drill fitted %s has been fired by %s "+
				"and the moon products are ready to be harvested.\n%s",
			o.intro,
			makeEveEntityProfileLink(firedBy),
			ores,
		),
		thumbnail: o.thumbnail,
	}, nil
}
