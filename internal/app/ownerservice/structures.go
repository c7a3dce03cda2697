package ownerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/antihax/goesi/esi"
	esioptional "github.com/antihax/goesi/optional"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
	"github.com/ErikKalkoken/structurewatch/internal/xesi"
)

// UpdateStructuresESI updates all structures of an owner from ESI.
//
// Upwell structures, customs offices and starbases are fetched and stored.
// Structures no longer returned from ESI are removed.
// Fuel expiry changes are handed to the fuel service to keep alerts consistent.
func (s *OwnerService) UpdateStructuresESI(ctx context.Context, ownerID int32) error {
	_, err, _ := s.sfg.Do(fmt.Sprintf("UpdateStructuresESI-%d", ownerID), func() (any, error) {
		owner, err := s.st.GetOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		err = s.updateStructures(ctx, owner)
		s.recordSectionResult(ctx, ownerID, app.SectionStructures, err)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("update structures for owner %d: %w", ownerID, err)
	}
	return nil
}

func (s *OwnerService) updateStructures(ctx context.Context, owner *app.Owner) error {
	accessToken, err := s.token(ctx, owner)
	if err != nil {
		return err
	}
	ctx = xesi.NewContextWithToken(ctx, accessToken)
	upwell, err := s.fetchUpwellStructures(ctx, owner)
	if err != nil {
		return err
	}
	pocos, err := s.fetchCustomsOffices(ctx, owner)
	if err != nil {
		return err
	}
	starbases, err := s.fetchStarbases(ctx, owner)
	if err != nil {
		return err
	}
	incoming := slices.Concat(upwell, pocos, starbases)
	var incomingIDs set.Set[int64]
	for _, arg := range incoming {
		incomingIDs.Add(arg.StructureID)
	}
	current, err := s.st.ListStructureIDsForOwner(ctx, owner.ID)
	if err != nil {
		return err
	}
	removed := set.Difference(current, incomingIDs)
	if removed.Size() > 0 {
		if err := s.st.DeleteStructures(ctx, removed); err != nil {
			return err
		}
		slog.Info("Removed structures which no longer exist", "ownerID", owner.ID, "count", removed.Size())
	}
	for _, arg := range incoming {
		old, err := s.st.GetStructure(ctx, arg.StructureID)
		if err != nil && !errors.Is(err, app.ErrNotFound) {
			return err
		}
		if err := s.st.UpdateOrCreateStructure(ctx, arg); err != nil {
			return err
		}
		if old == nil || s.fs == nil {
			continue
		}
		updated, err := s.st.GetStructure(ctx, arg.StructureID)
		if err != nil {
			return err
		}
		if err := s.fs.HandleFuelExpiryChange(ctx, *old, *updated); err != nil {
			return err
		}
	}
	if err := s.updateStructureItems(ctx, owner, incomingIDs); err != nil {
		return err
	}
	slog.Info("Updated structures", "ownerID", owner.ID, "count", len(incoming))
	return nil
}

func (s *OwnerService) fetchUpwellStructures(ctx context.Context, owner *app.Owner) ([]storage.UpdateOrCreateStructureParams, error) {
	structures, err := xesi.FetchWithPaging(
		func(pageNum int) ([]esi.GetCorporationsCorporationIdStructures200Ok, *http.Response, error) {
			opts := &esi.GetCorporationsCorporationIdStructuresOpts{
				Page: esioptional.NewInt32(int32(pageNum)),
			}
			return s.esiClient.ESI.CorporationApi.GetCorporationsCorporationIdStructures(ctx, owner.ID, opts)
		})
	if err != nil {
		return nil, err
	}
	args := make([]storage.UpdateOrCreateStructureParams, 0)
	for _, o := range structures {
		system, err := s.eus.GetOrCreateSolarSystemESI(ctx, o.SystemId)
		if err != nil {
			return nil, err
		}
		type_, err := s.eus.GetOrCreateTypeESI(ctx, o.TypeId)
		if err != nil {
			return nil, err
		}
		arg := storage.UpdateOrCreateStructureParams{
			StructureID:      o.StructureId,
			EveSolarSystemID: system.ID,
			EveTypeID:        optional.New(type_.ID),
			FuelExpires:      optional.FromTimeWithZero(o.FuelExpires),
			Name:             o.Name,
			OwnerID:          owner.ID,
			ReinforceHour:    optional.FromIntegerWithZero(int64(o.ReinforceHour)),
			State:            app.StructureStateFromESIName(o.State),
			StateTimerEnd:    optional.FromTimeWithZero(o.StateTimerEnd),
			UnanchorsAt:      optional.FromTimeWithZero(o.UnanchorsAt),
		}
		for _, service := range o.Services {
			if service.State == "online" {
				arg.LastOnline = optional.New(s.Now())
				break
			}
		}
		info, _, err := s.esiClient.ESI.UniverseApi.GetUniverseStructuresStructureId(ctx, o.StructureId, nil)
		if err != nil {
			slog.Error("Failed to fetch structure details", "structureID", o.StructureId, "error", err)
			arg.Name = "(no data)"
		} else {
			arg.Name = app.StructureNameFromESIName(info.Name)
			arg.Position = optional.New(app.Position{
				X: info.Position.X,
				Y: info.Position.Y,
				Z: info.Position.Z,
			})
		}
		args = append(args, arg)
	}
	return args, nil
}

var planetNamePattern = regexp.MustCompile(`Customs Office \((.+)\)`)

// extractPlanetName extracts the planet name from the asset name for a customs office.
func extractPlanetName(text string) string {
	m := planetNamePattern.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	return m[1]
}

func (s *OwnerService) fetchCustomsOffices(ctx context.Context, owner *app.Owner) ([]storage.UpdateOrCreateStructureParams, error) {
	pocos, err := xesi.FetchWithPaging(
		func(pageNum int) ([]esi.GetCorporationsCorporationIdCustomsOffices200Ok, *http.Response, error) {
			opts := &esi.GetCorporationsCorporationIdCustomsOfficesOpts{
				Page: esioptional.NewInt32(int32(pageNum)),
			}
			return s.esiClient.ESI.PlanetaryInteractionApi.GetCorporationsCorporationIdCustomsOffices(ctx, owner.ID, opts)
		})
	if err != nil {
		return nil, err
	}
	if len(pocos) == 0 {
		return nil, nil
	}
	itemIDs := make([]int64, 0)
	for _, o := range pocos {
		itemIDs = append(itemIDs, o.OfficeId)
	}
	positions, err := s.fetchAssetLocations(ctx, owner.ID, itemIDs)
	if err != nil {
		return nil, err
	}
	names, err := s.fetchAssetNames(ctx, owner.ID, itemIDs)
	if err != nil {
		return nil, err
	}
	pocoType, err := s.eus.GetOrCreateTypeESI(ctx, app.EveTypeCustomsOffice)
	if err != nil {
		return nil, err
	}
	args := make([]storage.UpdateOrCreateStructureParams, 0)
	for _, o := range pocos {
		system, err := s.eus.GetOrCreateSolarSystemESI(ctx, o.SystemId)
		if err != nil {
			return nil, err
		}
		arg := storage.UpdateOrCreateStructureParams{
			StructureID:      o.OfficeId,
			EveSolarSystemID: system.ID,
			EveTypeID:        optional.New(pocoType.ID),
			OwnerID:          owner.ID,
			ReinforceHour:    optional.New((int64(o.ReinforceExitStart) + 1) % 24),
			State:            app.StructureStateUnknown,
		}
		if name, ok := names[o.OfficeId]; ok {
			planetName := extractPlanetName(name)
			arg.Name = planetName
			planet, err := s.findPlanetByName(ctx, o.SystemId, planetName)
			if err != nil {
				return nil, err
			}
			if planet != nil {
				arg.EvePlanetID = optional.New(planet.ID)
			}
		}
		if p, ok := positions[o.OfficeId]; ok {
			arg.Position = optional.New(p)
		}
		args = append(args, arg)
	}
	return args, nil
}

// findPlanetByName resolves a planet in a solar system by name.
// All planets of the system are loaded on demand, so the name can be matched locally.
// Returns nil when no planet matches.
func (s *OwnerService) findPlanetByName(ctx context.Context, systemID int32, name string) (*app.EvePlanet, error) {
	system, _, err := s.esiClient.ESI.UniverseApi.GetUniverseSystemsSystemId(ctx, systemID, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range system.Planets {
		planet, err := s.eus.GetOrCreatePlanetESI(ctx, p.PlanetId)
		if err != nil {
			return nil, err
		}
		if planet.Name == name {
			return planet, nil
		}
	}
	return nil, nil
}

func (s *OwnerService) fetchStarbases(ctx context.Context, owner *app.Owner) ([]storage.UpdateOrCreateStructureParams, error) {
	starbases, err := xesi.FetchWithPaging(
		func(pageNum int) ([]esi.GetCorporationsCorporationIdStarbases200Ok, *http.Response, error) {
			opts := &esi.GetCorporationsCorporationIdStarbasesOpts{
				Page: esioptional.NewInt32(int32(pageNum)),
			}
			return s.esiClient.ESI.CorporationApi.GetCorporationsCorporationIdStarbases(ctx, owner.ID, opts)
		})
	if err != nil {
		return nil, err
	}
	if len(starbases) == 0 {
		return nil, nil
	}
	itemIDs := make([]int64, 0)
	for _, o := range starbases {
		itemIDs = append(itemIDs, o.StarbaseId)
	}
	names, err := s.fetchAssetNames(ctx, owner.ID, itemIDs)
	if err != nil {
		return nil, err
	}
	sovSystems, err := s.fetchSovereigntySystems(ctx, owner)
	if err != nil {
		return nil, err
	}
	args := make([]storage.UpdateOrCreateStructureParams, 0)
	for _, o := range starbases {
		system, err := s.eus.GetOrCreateSolarSystemESI(ctx, o.SystemId)
		if err != nil {
			return nil, err
		}
		type_, err := s.eus.GetOrCreateTypeESI(ctx, o.TypeId)
		if err != nil {
			return nil, err
		}
		name, ok := names[o.StarbaseId]
		if !ok || name == "" {
			name = "Starbase"
		}
		arg := storage.UpdateOrCreateStructureParams{
			StructureID:      o.StarbaseId,
			EveSolarSystemID: system.ID,
			EveTypeID:        optional.New(type_.ID),
			Name:             name,
			OwnerID:          owner.ID,
			State:            app.StructureStateFromESIName(o.State),
			StateTimerEnd:    optional.FromTimeWithZero(o.ReinforcedUntil),
			UnanchorsAt:      optional.FromTimeWithZero(o.UnanchorAt),
		}
		if o.MoonId != 0 {
			moon, err := s.eus.GetOrCreateMoonESI(ctx, o.MoonId)
			if err != nil {
				return nil, err
			}
			arg.EveMoonID = optional.New(moon.ID)
		}
		if o.State != "offline" {
			fuelExpires, err := s.calcStarbaseFuelExpires(ctx, owner, o, type_, sovSystems.Contains(o.SystemId))
			if err != nil {
				return nil, err
			}
			arg.FuelExpires = fuelExpires
		}
		args = append(args, arg)
	}
	return args, nil
}

// calcStarbaseFuelExpires estimates when a starbase runs out of fuel
// from the quantity of fuel blocks in its bay and the consumption rate of the tower.
func (s *OwnerService) calcStarbaseFuelExpires(
	ctx context.Context,
	owner *app.Owner,
	starbase esi.GetCorporationsCorporationIdStarbases200Ok,
	starbaseType *app.EveType,
	hasSov bool,
) (optional.Optional[time.Time], error) {
	details, _, err := s.esiClient.ESI.CorporationApi.GetCorporationsCorporationIdStarbasesStarbaseId(
		ctx, owner.ID, starbase.StarbaseId, starbase.SystemId, nil,
	)
	if err != nil {
		return optional.Optional[time.Time]{}, err
	}
	var quantity int
	for _, fuel := range details.Fuels {
		fuelType, err := s.eus.GetOrCreateTypeESI(ctx, fuel.TypeId)
		if err != nil {
			return optional.Optional[time.Time]{}, err
		}
		if fuelType.IsFuelBlock() {
			quantity = int(fuel.Quantity)
		}
	}
	if quantity == 0 {
		return optional.Optional[time.Time]{}, nil
	}
	duration, err := starbaseType.StarbaseFuelDuration(quantity, hasSov)
	if err != nil {
		slog.Warn("Can not estimate fuel duration", "starbaseID", starbase.StarbaseId, "error", err)
		return optional.Optional[time.Time]{}, nil
	}
	expires := s.Now().Add(time.Duration(duration.MustValue()) * time.Second)
	return optional.New(expires), nil
}

// fetchSovereigntySystems returns the solar systems in which the owner's alliance holds sovereignty.
func (s *OwnerService) fetchSovereigntySystems(ctx context.Context, owner *app.Owner) (set.Set[int32], error) {
	var systems set.Set[int32]
	allianceID, err := owner.AllianceID().Value()
	if err != nil {
		return systems, nil
	}
	rows, _, err := s.esiClient.ESI.SovereigntyApi.GetSovereigntyMap(ctx, nil)
	if err != nil {
		return systems, err
	}
	for _, r := range rows {
		if r.AllianceId == allianceID {
			systems.Add(r.SystemId)
		}
	}
	return systems, nil
}

const assetNamesChunkSize = 999

func (s *OwnerService) fetchAssetNames(ctx context.Context, corporationID int32, itemIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string)
	for chunk := range slices.Chunk(itemIDs, assetNamesChunkSize) {
		rows, _, err := s.esiClient.ESI.AssetsApi.PostCorporationsCorporationIdAssetsNames(ctx, corporationID, chunk, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			names[r.ItemId] = r.Name
		}
	}
	return names, nil
}

func (s *OwnerService) fetchAssetLocations(ctx context.Context, corporationID int32, itemIDs []int64) (map[int64]app.Position, error) {
	positions := make(map[int64]app.Position)
	for chunk := range slices.Chunk(itemIDs, assetNamesChunkSize) {
		rows, _, err := s.esiClient.ESI.AssetsApi.PostCorporationsCorporationIdAssetsLocations(ctx, corporationID, chunk, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			positions[r.ItemId] = app.Position{X: r.Position.X, Y: r.Position.Y, Z: r.Position.Z}
		}
	}
	return positions, nil
}

// updateStructureItems refreshes the fuel bay contents of all tracked structures
// from the corporation assets. Fuel bay quantities drive the jump fuel alerts.
func (s *OwnerService) updateStructureItems(ctx context.Context, owner *app.Owner, structureIDs set.Set[int64]) error {
	if structureIDs.Size() == 0 {
		return nil
	}
	assets, err := xesi.FetchWithPaging(
		func(pageNum int) ([]esi.GetCorporationsCorporationIdAssets200Ok, *http.Response, error) {
			opts := &esi.GetCorporationsCorporationIdAssetsOpts{
				Page: esioptional.NewInt32(int32(pageNum)),
			}
			return s.esiClient.ESI.AssetsApi.GetCorporationsCorporationIdAssets(ctx, owner.ID, opts)
		})
	if err != nil {
		return err
	}
	items := make(map[int64][]storage.CreateStructureItemParams)
	for _, a := range assets {
		if a.LocationFlag != app.LocationFlagStructureFuel || !structureIDs.Contains(a.LocationId) {
			continue
		}
		type_, err := s.eus.GetOrCreateTypeESI(ctx, a.TypeId)
		if err != nil {
			return err
		}
		items[a.LocationId] = append(items[a.LocationId], storage.CreateStructureItemParams{
			ID:           a.ItemId,
			EveTypeID:    type_.ID,
			IsSingleton:  a.IsSingleton,
			LocationFlag: a.LocationFlag,
			Quantity:     int(a.Quantity),
			StructureID:  a.LocationId,
		})
	}
	for structureID := range structureIDs.All() {
		if err := s.st.ReplaceStructureItems(ctx, structureID, items[structureID]); err != nil {
			return err
		}
	}
	return nil
}
