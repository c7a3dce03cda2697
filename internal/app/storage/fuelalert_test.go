package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
)

func TestFuelAlert(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("first marker reports created", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		// when
		created, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
		// then
		if assert.NoError(t, err) {
			assert.True(t, created)
		}
	})
	t.Run("repeated marker reports not created", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		_, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
		if err != nil {
			t.Fatal(err)
		}
		// when
		created, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
		// then
		if assert.NoError(t, err) {
			assert.False(t, created)
		}
	})
	t.Run("different checkpoints are separate markers", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		_, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
		if err != nil {
			t.Fatal(err)
		}
		// when
		created, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 36)
		// then
		if assert.NoError(t, err) {
			assert.True(t, created)
			oo, err := st.ListFuelAlertsForStructure(ctx, s.StructureID)
			if assert.NoError(t, err) {
				assert.Len(t, oo, 2)
			}
		}
	})
	t.Run("can delete markers of a structure", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		_, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
		if err != nil {
			t.Fatal(err)
		}
		// when
		err = st.DeleteFuelAlertsForStructure(ctx, s.StructureID)
		// then
		if assert.NoError(t, err) {
			created, err := st.GetOrCreateFuelAlert(ctx, s.StructureID, 1, 48)
			if assert.NoError(t, err) {
				assert.True(t, created)
			}
		}
	})
}

func TestJumpFuelAlert(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("marker is idempotent per config", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		// when
		created1, err1 := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 1)
		created2, err2 := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 1)
		created3, err3 := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 2)
		// then
		if assert.NoError(t, err1) && assert.NoError(t, err2) && assert.NoError(t, err3) {
			assert.True(t, created1)
			assert.False(t, created2)
			assert.True(t, created3)
		}
	})
	t.Run("can list and delete single markers", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		if _, err := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 1); err != nil {
			t.Fatal(err)
		}
		if _, err := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 2); err != nil {
			t.Fatal(err)
		}
		// when
		oo, err := st.ListJumpFuelAlertsForStructure(ctx, s.StructureID)
		// then
		if assert.NoError(t, err) && assert.Len(t, oo, 2) {
			err := st.DeleteJumpFuelAlert(ctx, oo[0].ID)
			if assert.NoError(t, err) {
				oo2, err := st.ListJumpFuelAlertsForStructure(ctx, s.StructureID)
				if assert.NoError(t, err) {
					assert.Len(t, oo2, 1)
				}
			}
		}
	})
	t.Run("markers are removed with their structure", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := factory.CreateStructure()
		if _, err := st.GetOrCreateJumpFuelAlert(ctx, s.StructureID, 1); err != nil {
			t.Fatal(err)
		}
		// when
		err := st.DeleteJumpFuelAlertsForStructure(ctx, s.StructureID)
		// then
		if assert.NoError(t, err) {
			oo, err := st.ListJumpFuelAlertsForStructure(ctx, s.StructureID)
			if assert.NoError(t, err) {
				assert.Len(t, oo, 0)
			}
		}
	})
}
