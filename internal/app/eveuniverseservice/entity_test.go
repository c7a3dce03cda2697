package eveuniverseservice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

func TestAddMissingEntities(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	responder := func(req *http.Request) (*http.Response, error) {
		var ids []int32
		if err := json.NewDecoder(req.Body).Decode(&ids); err != nil {
			return httpmock.NewJsonResponse(400, map[string]any{"error": "invalid request"})
		}
		var results []map[string]any
		for _, id := range ids {
			switch id {
			case 47:
				results = append(results, map[string]any{
					"id": 47, "name": "Erik", "category": "character",
				})
			default:
				return httpmock.NewJsonResponse(404, map[string]any{"error": "Invalid ID"})
			}
		}
		return httpmock.NewJsonResponse(200, results)
	}
	t.Run("do nothing when all entities already exist", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			responder,
		)
		e1 := factory.CreateEveEntityCharacter()
		// when
		ids, err := s.AddMissingEntities(ctx, set.Of(e1.ID))
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.Equal(t, 0, ids.Size())
		}
	})
	t.Run("can resolve missing entities", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			responder,
		)
		// when
		ids, err := s.AddMissingEntities(ctx, set.Of[int32](47))
		// then
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.True(t, set.Of[int32](47).Equal(ids))
			e, err := st.GetEveEntity(ctx, 47)
			if err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, "Erik", e.Name)
			assert.Equal(t, app.EveEntityCharacter, e.Category)
		}
	})
	t.Run("can report normal error correctly", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewErrorResponder(fmt.Errorf("failed")),
		)
		// when
		_, err := s.AddMissingEntities(ctx, set.Of[int32](47))
		// then
		assert.Error(t, err)
	})
	t.Run("marks invalid ID 1 as unknown without calling ESI", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		// when
		_, err := s.AddMissingEntities(ctx, set.Of[int32](1))
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			e, err := st.GetEveEntity(ctx, 1)
			if assert.NoError(t, err) {
				assert.Equal(t, app.EveEntityUnknown, e.Category)
			}
		}
	})
}

func TestToEntities(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	s := eveuniverseservice.NewTestService(st)
	t.Run("resolves stored entities and maps ID 0 to a placeholder", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		e1 := factory.CreateEveEntityCorporation()
		// when
		r, err := s.ToEntities(ctx, set.Of(e1.ID, 0))
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, e1.Name, r[e1.ID].Name)
			assert.Equal(t, "", r[0].Name)
		}
	})
}

func TestGetOrCreateEntityESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	s := eveuniverseservice.NewTestService(st)
	t.Run("returns stored entity without calling ESI", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()
		e1 := factory.CreateEveEntityCharacter()
		// when
		e2, err := s.GetOrCreateEntityESI(ctx, e1.ID)
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.Equal(t, e1, e2)
		}
	})
}
