package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

func TestStructure(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create and fetch", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		owner := factory.CreateOwner()
		system := factory.CreateEveSolarSystem()
		et := factory.CreateEveTypeStructure()
		fuelExpires := time.Now().Add(72 * time.Hour).UTC()
		// when
		err := st.UpdateOrCreateStructure(ctx, storage.UpdateOrCreateStructureParams{
			StructureID:      1_000_000_000_001,
			EveSolarSystemID: system.ID,
			EveTypeID:        optional.New(et.ID),
			FuelExpires:      optional.New(fuelExpires),
			Name:             "Batcave",
			OwnerID:          owner.ID,
			Position:         optional.New(app.Position{X: 1, Y: 2, Z: 3}),
			State:            app.StructureStateShieldVulnerable,
		})
		// then
		if assert.NoError(t, err) {
			o, err := st.GetStructure(ctx, 1_000_000_000_001)
			if assert.NoError(t, err) {
				assert.Equal(t, "Batcave", o.Name)
				assert.Equal(t, owner.ID, o.OwnerID)
				assert.Equal(t, system.ID, o.System.ID)
				assert.Equal(t, et.ID, o.Type.ID)
				assert.True(t, o.IsUpwellStructure())
				assert.Equal(t, fuelExpires.Unix(), o.FuelExpires.MustValue().Unix())
				assert.Equal(t, app.Position{X: 1, Y: 2, Z: 3}, o.Position.MustValue())
				assert.Equal(t, app.PowerModeFullPower, o.PowerMode())
				assert.Empty(t, o.WebhookIDs)
			}
		}
	})
	t.Run("should report not found for unknown structure", func(t *testing.T) {
		testutil.TruncateTables(db)
		_, err := st.GetStructure(ctx, 666)
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
	t.Run("update preserves webhook override", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		err := st.UpdateStructureWebhooks(ctx, s.StructureID, []int64{42})
		if err != nil {
			t.Fatal(err)
		}
		// when
		err = st.UpdateOrCreateStructure(ctx, storage.UpdateOrCreateStructureParams{
			StructureID:      s.StructureID,
			EveSolarSystemID: s.System.ID,
			Name:             "Renamed",
			OwnerID:          s.OwnerID,
			State:            s.State,
		})
		// then
		if assert.NoError(t, err) {
			o, err := st.GetStructure(ctx, s.StructureID)
			if assert.NoError(t, err) {
				assert.Equal(t, "Renamed", o.Name)
				assert.Equal(t, []int64{42}, o.WebhookIDs)
			}
		}
	})
	t.Run("can list and delete structures of an owner", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		owner := factory.CreateOwner()
		s1 := factory.CreateStructure(storage.UpdateOrCreateStructureParams{OwnerID: owner.ID})
		s2 := factory.CreateStructure(storage.UpdateOrCreateStructureParams{OwnerID: owner.ID})
		factory.CreateStructure()
		// when
		ids, err := st.ListStructureIDsForOwner(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.True(t, ids.Equal(set.Of(s1.StructureID, s2.StructureID)))
		}
		// when
		err = st.DeleteStructures(ctx, set.Of(s1.StructureID))
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListStructuresForOwner(ctx, owner.ID)
			if assert.NoError(t, err) {
				if assert.Len(t, oo, 1) {
					assert.Equal(t, s2.StructureID, oo[0].StructureID)
				}
			}
		}
	})
	t.Run("structure with moon location", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		moon := factory.CreateEveMoon()
		// when
		s := factory.CreateStructure(storage.UpdateOrCreateStructureParams{
			EveMoonID:        optional.New(moon.ID),
			EveSolarSystemID: moon.SolarSystem.ID,
		})
		// then
		assert.Equal(t, moon.Name, s.LocationName())
	})
}
