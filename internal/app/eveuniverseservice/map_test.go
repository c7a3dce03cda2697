package eveuniverseservice_test

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
)

func TestGetOrCreateSolarSystemESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	ctx := context.Background()
	t.Run("should return existing solar system", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		x := factory.CreateEveSolarSystem()
		// when
		x1, err := s.GetOrCreateSolarSystemESI(ctx, x.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, x.ID, x1.ID)
			assert.Equal(t, 0, httpmock.GetTotalCallCount())
		}
	})
	t.Run("should fetch solar system from ESI and create it", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v4/universe/systems/30000142/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"constellation_id": 20000020,
				"name":             "Jita",
				"security_status":  0.9459,
				"system_id":        30000142,
			}),
		)
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v1/universe/constellations/20000020/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"constellation_id": 20000020,
				"name":             "Kimotoro",
				"region_id":        10000002,
				"systems":          []int{30000142},
			}),
		)
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v1/universe/regions/10000002/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"constellations": []int{20000020},
				"name":           "The Forge",
				"region_id":      10000002,
			}),
		)
		// when
		x1, err := s.GetOrCreateSolarSystemESI(ctx, 30000142)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, int32(30000142), x1.ID)
			assert.Equal(t, "Jita", x1.Name)
			assert.Equal(t, "Kimotoro", x1.Constellation.Name)
			x2, err := st.GetEveSolarSystem(ctx, 30000142)
			if assert.NoError(t, err) {
				assert.Equal(t, x1, x2)
			}
		}
	})
}

func TestGetOrCreateMoonESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	ctx := context.Background()
	t.Run("should fetch moon from ESI and create it", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		system := factory.CreateEveSolarSystem()
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v1/universe/moons/40161465/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"moon_id":   40161465,
				"name":      "Amamake II - Moon 1",
				"system_id": system.ID,
			}),
		)
		// when
		x1, err := s.GetOrCreateMoonESI(ctx, 40161465)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, int32(40161465), x1.ID)
			assert.Equal(t, "Amamake II - Moon 1", x1.Name)
			assert.Equal(t, system.ID, x1.SolarSystem.ID)
		}
	})
}

func TestGetOrCreateTypeESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	ctx := context.Background()
	t.Run("should return existing type", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		x := factory.CreateEveType()
		// when
		x1, err := s.GetOrCreateTypeESI(ctx, x.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, x.ID, x1.ID)
			assert.Equal(t, 0, httpmock.GetTotalCallCount())
		}
	})
	t.Run("should fetch type from ESI and create it with group and category", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v2/universe/types/35835/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"description": "A citadel",
				"group_id":    1657,
				"name":        "Astrahus",
				"published":   true,
				"type_id":     35835,
			}),
		)
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v1/universe/groups/1657/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"category_id": 65,
				"group_id":    1657,
				"name":        "Citadel",
				"published":   true,
				"types":       []int{35835},
			}),
		)
		httpmock.RegisterResponder(
			"GET",
			"https://esi.evetech.net/v1/universe/categories/65/",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"category_id": 65,
				"groups":      []int{1657},
				"name":        "Structure",
				"published":   true,
			}),
		)
		// when
		x1, err := s.GetOrCreateTypeESI(ctx, 35835)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, int32(35835), x1.ID)
			assert.Equal(t, "Astrahus", x1.Name)
			assert.True(t, x1.IsUpwellStructure())
			x2, err := st.GetEveType(ctx, 35835)
			if assert.NoError(t, err) {
				assert.Equal(t, x1, x2)
			}
		}
	})
}
