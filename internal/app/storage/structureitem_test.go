package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

func TestStructureItems(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can replace and list items", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		structure := factory.CreateStructure()
		et := factory.CreateEveType()
		// when
		err := st.ReplaceStructureItems(ctx, structure.StructureID, []storage.CreateStructureItemParams{
			{
				ID:           42,
				EveTypeID:    et.ID,
				LocationFlag: app.LocationFlagStructureFuel,
				Quantity:     500,
				StructureID:  structure.StructureID,
			},
			{
				ID:           7,
				EveTypeID:    et.ID,
				IsSingleton:  true,
				LocationFlag: "Hangar",
				Quantity:     1,
				StructureID:  structure.StructureID,
			},
		})
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListStructureItems(ctx, structure.StructureID)
			if assert.NoError(t, err) && assert.Len(t, oo, 2) {
				assert.EqualValues(t, 7, oo[0].ID)
				assert.True(t, oo[0].IsSingleton)
				assert.EqualValues(t, 42, oo[1].ID)
				assert.Equal(t, app.LocationFlagStructureFuel, oo[1].LocationFlag)
				assert.Equal(t, 500, oo[1].Quantity)
				assert.Equal(t, et.ID, oo[1].Type.ID)
			}
		}
	})
	t.Run("replace overwrites previous items", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		structure := factory.CreateStructure()
		old := factory.CreateStructureItem(storage.CreateStructureItemParams{StructureID: structure.StructureID})
		et := factory.CreateEveType()
		// when
		err := st.ReplaceStructureItems(ctx, structure.StructureID, []storage.CreateStructureItemParams{
			{
				ID:           old.ID + 1,
				EveTypeID:    et.ID,
				LocationFlag: app.LocationFlagStructureFuel,
				Quantity:     99,
				StructureID:  structure.StructureID,
			},
		})
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListStructureItems(ctx, structure.StructureID)
			if assert.NoError(t, err) && assert.Len(t, oo, 1) {
				assert.Equal(t, old.ID+1, oo[0].ID)
			}
		}
	})
	t.Run("replace with empty set removes all items", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		structure := factory.CreateStructure()
		factory.CreateStructureItem(storage.CreateStructureItemParams{StructureID: structure.StructureID})
		// when
		err := st.ReplaceStructureItems(ctx, structure.StructureID, nil)
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListStructureItems(ctx, structure.StructureID)
			if assert.NoError(t, err) {
				assert.Empty(t, oo)
			}
		}
	})
	t.Run("should not allow items for a different structure", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		structure := factory.CreateStructure()
		et := factory.CreateEveType()
		// when
		err := st.ReplaceStructureItems(ctx, structure.StructureID, []storage.CreateStructureItemParams{
			{
				ID:           1,
				EveTypeID:    et.ID,
				LocationFlag: app.LocationFlagStructureFuel,
				Quantity:     1,
				StructureID:  structure.StructureID + 1,
			},
		})
		// then
		assert.ErrorIs(t, err, app.ErrInvalid)
	})
	t.Run("items are deleted with their structure", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		structure := factory.CreateStructure()
		factory.CreateStructureItem(storage.CreateStructureItemParams{StructureID: structure.StructureID})
		// when
		err := st.DeleteStructures(ctx, set.Of(structure.StructureID))
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListStructureItems(ctx, structure.StructureID)
			if assert.NoError(t, err) {
				assert.Empty(t, oo)
			}
		}
	})
}
