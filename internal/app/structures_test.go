package app_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

func newUpwellType() *app.EveType {
	return &app.EveType{
		ID:   35832,
		Name: "Astrahus",
		Group: &app.EveGroup{
			ID:       1657,
			Name:     "Citadel",
			Category: &app.EveCategory{ID: app.EveCategoryStructure, Name: "Structure"},
		},
	}
}

func newStarbaseType(name string) *app.EveType {
	return &app.EveType{
		ID:   16213,
		Name: name,
		Group: &app.EveGroup{
			ID:       app.EveGroupControlTower,
			Name:     "Control Tower",
			Category: &app.EveCategory{ID: app.EveCategoryStarbase, Name: "Starbase"},
		},
	}
}

func TestStructureStateFromESIName(t *testing.T) {
	cases := []struct {
		name string
		want app.StructureState
	}{
		{"anchor_vulnerable", app.StructureStateAnchorVulnerable},
		{"anchoring", app.StructureStateAnchoring},
		{"armor_reinforce", app.StructureStateArmorReinforce},
		{"armor_vulnerable", app.StructureStateArmorVulnerable},
		{"deploy_vulnerable", app.StructureStateDeployVulnerable},
		{"fitting_invulnerable", app.StructureStateFittingInvulnerable},
		{"hull_reinforce", app.StructureStateHullReinforce},
		{"hull_vulnerable", app.StructureStateHullVulnerable},
		{"online_deprecated", app.StructureStateOnlineDeprecated},
		{"onlining_vulnerable", app.StructureStateOnliningVulnerable},
		{"shield_vulnerable", app.StructureStateShieldVulnerable},
		{"unanchored", app.StructureStateUnanchored},
		{"offline", app.StructureStatePosOffline},
		{"online", app.StructureStatePosOnline},
		{"onlining", app.StructureStatePosOnlining},
		{"reinforced", app.StructureStatePosReinforced},
		{"unanchoring ", app.StructureStatePosUnanchoring},
		{"never-heard-of", app.StructureStateUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, app.StructureStateFromESIName(tc.name))
		})
	}
}

func TestStructurePowerMode(t *testing.T) {
	now := time.Now()
	future := optional.New(now.Add(24 * time.Hour))
	past := optional.New(now.Add(-24 * time.Hour))
	recent := optional.New(now.Add(-3 * 24 * time.Hour))
	old := optional.New(now.Add(-8 * 24 * time.Hour))
	none := optional.Optional[time.Time]{}
	cases := []struct {
		name        string
		fuelExpires optional.Optional[time.Time]
		lastOnline  optional.Optional[time.Time]
		state       app.StructureState
		want        app.PowerMode
	}{
		{"full power with future fuel", future, none, app.StructureStateShieldVulnerable, app.PowerModeFullPower},
		{"full power overrides anchoring", future, none, app.StructureStateAnchoring, app.PowerModeFullPower},
		{"low power when recently online", past, recent, app.StructureStateShieldVulnerable, app.PowerModeLowPower},
		{"low power when recently online without fuel date", none, recent, app.StructureStateShieldVulnerable, app.PowerModeLowPower},
		{"abandoned when offline for a week", past, old, app.StructureStateShieldVulnerable, app.PowerModeAbandoned},
		{"abandoned when offline for a week without fuel date", none, old, app.StructureStateShieldVulnerable, app.PowerModeAbandoned},
		{"low power when anchoring", none, none, app.StructureStateAnchoring, app.PowerModeLowPower},
		{"low power when anchor vulnerable", past, none, app.StructureStateAnchorVulnerable, app.PowerModeLowPower},
		{"maybe abandoned when nothing known", none, none, app.StructureStateShieldVulnerable, app.PowerModeLowAbandoned},
		{"maybe abandoned with expired fuel only", past, none, app.StructureStateUnknown, app.PowerModeLowAbandoned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := app.Structure{
				Type:        newUpwellType(),
				FuelExpires: tc.fuelExpires,
				LastOnline:  tc.lastOnline,
				State:       tc.state,
			}
			assert.Equal(t, tc.want, s.PowerMode())
		})
	}
	t.Run("should be undefined for starbases", func(t *testing.T) {
		s := app.Structure{
			Type:        newStarbaseType("Caldari Control Tower"),
			FuelExpires: future,
			State:       app.StructureStatePosOnline,
		}
		assert.Equal(t, app.PowerModeUndefined, s.PowerMode())
	})
	t.Run("should return exactly one defined mode for all upwell combinations", func(t *testing.T) {
		defined := map[app.PowerMode]bool{
			app.PowerModeFullPower:    true,
			app.PowerModeLowPower:     true,
			app.PowerModeAbandoned:    true,
			app.PowerModeLowAbandoned: true,
		}
		fuels := []optional.Optional[time.Time]{future, past, none}
		onlines := []optional.Optional[time.Time]{recent, old, none}
		states := []app.StructureState{app.StructureStateAnchoring, app.StructureStateShieldVulnerable}
		for _, f := range fuels {
			for _, o := range onlines {
				for _, st := range states {
					s := app.Structure{Type: newUpwellType(), FuelExpires: f, LastOnline: o, State: st}
					assert.True(t, defined[s.PowerMode()], "fuel=%v online=%v state=%v", f, o, st)
				}
			}
		}
	})
}

func TestStructureIsReinforced(t *testing.T) {
	cases := []struct {
		state app.StructureState
		want  bool
	}{
		{app.StructureStateArmorReinforce, true},
		{app.StructureStateHullReinforce, true},
		{app.StructureStateAnchorVulnerable, true},
		{app.StructureStateHullVulnerable, true},
		{app.StructureStatePosReinforced, true},
		{app.StructureStateShieldVulnerable, false},
		{app.StructureStatePosOnline, false},
		{app.StructureStateNA, false},
	}
	for _, tc := range cases {
		t.Run(tc.state.String(), func(t *testing.T) {
			s := app.Structure{State: tc.state}
			assert.Equal(t, tc.want, s.IsReinforced())
		})
	}
}

func TestStructureIsBurningFuel(t *testing.T) {
	now := time.Now()
	t.Run("upwell structure burns fuel at full power", func(t *testing.T) {
		s := app.Structure{
			Type:        newUpwellType(),
			FuelExpires: optional.New(now.Add(time.Hour)),
		}
		assert.True(t, s.IsBurningFuel())
	})
	t.Run("upwell structure does not burn fuel at low power", func(t *testing.T) {
		s := app.Structure{
			Type:       newUpwellType(),
			LastOnline: optional.New(now.Add(-time.Hour)),
		}
		assert.False(t, s.IsBurningFuel())
	})
	t.Run("starbase burns fuel depending on state", func(t *testing.T) {
		cases := []struct {
			state app.StructureState
			want  bool
		}{
			{app.StructureStatePosOnline, true},
			{app.StructureStatePosReinforced, true},
			{app.StructureStatePosUnanchoring, true},
			{app.StructureStatePosOffline, false},
			{app.StructureStatePosOnlining, false},
		}
		for _, tc := range cases {
			s := app.Structure{Type: newStarbaseType("Caldari Control Tower"), State: tc.state}
			assert.Equal(t, tc.want, s.IsBurningFuel(), tc.state)
		}
	})
}

func TestStructureIsFuelExpiryDateDifferent(t *testing.T) {
	now := time.Now()
	t.Run("within threshold counts as equal", func(t *testing.T) {
		a := app.Structure{Type: newUpwellType(), FuelExpires: optional.New(now)}
		b := app.Structure{Type: newUpwellType(), FuelExpires: optional.New(now.Add(20 * time.Minute))}
		assert.False(t, a.IsFuelExpiryDateDifferent(b))
	})
	t.Run("beyond threshold counts as different", func(t *testing.T) {
		a := app.Structure{Type: newUpwellType(), FuelExpires: optional.New(now)}
		b := app.Structure{Type: newUpwellType(), FuelExpires: optional.New(now.Add(40 * time.Minute))}
		assert.True(t, a.IsFuelExpiryDateDifferent(b))
	})
	t.Run("starbases have a wider threshold", func(t *testing.T) {
		a := app.Structure{Type: newStarbaseType("Caldari Control Tower"), FuelExpires: optional.New(now)}
		b := app.Structure{Type: newStarbaseType("Caldari Control Tower"), FuelExpires: optional.New(now.Add(100 * time.Minute))}
		assert.False(t, a.IsFuelExpiryDateDifferent(b))
	})
	t.Run("missing date on one side is different", func(t *testing.T) {
		a := app.Structure{Type: newUpwellType(), FuelExpires: optional.New(now)}
		b := app.Structure{Type: newUpwellType()}
		assert.True(t, a.IsFuelExpiryDateDifferent(b))
		assert.True(t, b.IsFuelExpiryDateDifferent(a))
	})
	t.Run("missing date on both sides is equal", func(t *testing.T) {
		a := app.Structure{Type: newUpwellType()}
		b := app.Structure{Type: newUpwellType()}
		assert.False(t, a.IsFuelExpiryDateDifferent(b))
	})
}

func TestStructureNameFromESIName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1-PGSG - Batcave", "Batcave"},
		{"Amamake - Test Structure Alpha", "Test Structure Alpha"},
		{"no separator here", "no separator here"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tc.want, app.StructureNameFromESIName(tc.in))
		})
	}
}

func TestStructureLocationName(t *testing.T) {
	system := &app.EveSolarSystem{ID: 30002537, Name: "Amamake"}
	moon := &app.EveMoon{ID: 40161465, Name: "Amamake II - Moon 1", SolarSystem: system}
	planet := &app.EvePlanet{ID: 40161469, Name: "Amamake IV", SolarSystem: system}
	t.Run("prefers moon", func(t *testing.T) {
		s := app.Structure{Moon: moon, Planet: planet, System: system}
		assert.Equal(t, "Amamake II - Moon 1", s.LocationName())
	})
	t.Run("falls back to planet", func(t *testing.T) {
		s := app.Structure{Planet: planet, System: system}
		assert.Equal(t, "Amamake IV", s.LocationName())
	})
	t.Run("falls back to system", func(t *testing.T) {
		s := app.Structure{System: system}
		assert.Equal(t, "Amamake", s.LocationName())
	})
}

func TestStarbaseFuelDuration(t *testing.T) {
	t.Run("large tower burns 40 blocks per hour", func(t *testing.T) {
		et := newStarbaseType("Caldari Control Tower")
		got, err := et.StarbaseFuelDuration(80, false)
		if assert.NoError(t, err) {
			assert.Equal(t, 7200.0, got.MustValue())
		}
	})
	t.Run("medium tower burns 20 blocks per hour", func(t *testing.T) {
		et := newStarbaseType("Caldari Control Tower Medium")
		got, err := et.StarbaseFuelDuration(80, false)
		if assert.NoError(t, err) {
			assert.Equal(t, 14400.0, got.MustValue())
		}
	})
	t.Run("sov discount stretches fuel", func(t *testing.T) {
		et := newStarbaseType("Caldari Control Tower Small")
		got, err := et.StarbaseFuelDuration(30, true)
		if assert.NoError(t, err) {
			assert.Equal(t, 14400.0, got.MustValue())
		}
	})
	t.Run("fails for non starbase types", func(t *testing.T) {
		_, err := newUpwellType().StarbaseFuelDuration(80, false)
		assert.Error(t, err)
	})
}
