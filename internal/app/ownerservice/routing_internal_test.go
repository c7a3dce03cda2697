package ownerservice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/antihax/goesi"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type staticTokenSource struct {
	token string
	err   error
}

func (ts staticTokenSource) Token(ctx context.Context, characterID int32) (string, error) {
	return ts.token, ts.err
}

func newService(st *storage.Storage, cfg app.Config) *OwnerService {
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		Storage:   st,
		ESIClient: goesi.NewAPIClient(nil, "test@kalkoken.net"),
	})
	return New(Params{
		Config:                 cfg,
		EveNotificationService: evenotification.New(eus, st),
		EveUniverseService:     eus,
		Storage:                st,
		TokenSource:            staticTokenSource{token: "access-token"},
	})
}

func TestShouldForward(t *testing.T) {
	alliance := &app.EveEntity{ID: 3001, Name: "Alliance", Category: app.EveEntityAlliance}
	cases := []struct {
		name  string
		owner *app.Owner
		nt    app.NotificationType
		want  bool
	}{
		{"alliance level and owner is not alliance main", &app.Owner{Alliance: alliance}, app.SovAllClaimLostMsg, false},
		{"alliance level and owner is alliance main", &app.Owner{Alliance: alliance, IsAllianceMain: true}, app.SovAllClaimLostMsg, true},
		{"alliance level and owner has no alliance", &app.Owner{}, app.SovAllClaimLostMsg, true},
		{"corporation level and owner is not alliance main", &app.Owner{Alliance: alliance}, app.StructureUnderAttack, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldForward(tc.owner, tc.nt))
		})
	}
}

func TestClassifySyncError(t *testing.T) {
	cases := []struct {
		err  error
		want app.SyncError
	}{
		{nil, app.SyncErrorNone},
		{fmt.Errorf("owner 42: %w", ErrNoCharacter), app.SyncErrorNoCharacter},
		{fmt.Errorf("token for owner 42: %w", ErrTokenExpired), app.SyncErrorTokenExpired},
		{ErrTokenInvalid, app.SyncErrorTokenInvalid},
		{ErrInsufficientPermissions, app.SyncErrorInsufficientPermissions},
		{errors.New("boom"), app.SyncErrorUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, classifySyncError(tc.err))
		})
	}
}

func TestSingleWebhookConfiguration(t *testing.T) {
	t.Run("no structures", func(t *testing.T) {
		_, ok := singleWebhookConfiguration(nil)
		assert.False(t, ok)
	})
	t.Run("structures without webhooks", func(t *testing.T) {
		structures := []*app.Structure{{StructureID: 1}, {StructureID: 2}}
		_, ok := singleWebhookConfiguration(structures)
		assert.False(t, ok)
	})
	t.Run("one configuration", func(t *testing.T) {
		structures := []*app.Structure{
			{StructureID: 1, WebhookIDs: []int64{2, 1}},
			{StructureID: 2, WebhookIDs: []int64{1, 2}},
			{StructureID: 3},
		}
		ids, ok := singleWebhookConfiguration(structures)
		assert.True(t, ok)
		assert.Equal(t, []int64{1, 2}, ids)
	})
	t.Run("conflicting configurations", func(t *testing.T) {
		structures := []*app.Structure{
			{StructureID: 1, WebhookIDs: []int64{1}},
			{StructureID: 2, WebhookIDs: []int64{2}},
		}
		_, ok := singleWebhookConfiguration(structures)
		assert.False(t, ok)
	})
}

func TestRelevantWebhooks(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should return active owner webhooks subscribed to the type", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		w2 := factory.CreateWebhook(storage.UpdateOrCreateWebhookParams{
			NotificationTypes: set.Of(app.StructureDestroyed),
		})
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID, w2.ID},
		})
		n := factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID: owner.ID,
			Type:    string(app.StructureUnderAttack),
			Text:    "structureID: 1000000000001\n",
		})
		// when
		got, err := s.relevantWebhooks(ctx, owner, n)
		// then
		if assert.NoError(t, err) {
			ids := make([]int64, 0)
			for _, w := range got {
				ids = append(ids, w.ID)
			}
			assert.Equal(t, []int64{w1.ID}, ids)
		}
	})
	t.Run("should prefer the webhook configuration of the related structure", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		w2 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID},
		})
		structure := factory.CreateStructure(storage.UpdateOrCreateStructureParams{
			OwnerID: owner.ID,
		})
		err := st.UpdateStructureWebhooks(ctx, structure.StructureID, []int64{w2.ID})
		if err != nil {
			t.Fatal(err)
		}
		n := factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID: owner.ID,
			Type:    string(app.StructureUnderAttack),
			Text:    fmt.Sprintf("structureID: %d\n", structure.StructureID),
		})
		// when
		got, err := s.relevantWebhooks(ctx, owner, n)
		// then
		if assert.NoError(t, err) && assert.Len(t, got, 1) {
			assert.Equal(t, w2.ID, got[0].ID)
		}
	})
	t.Run("should fall back to owner webhooks when the structure is unknown", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID},
		})
		n := factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID: owner.ID,
			Type:    string(app.StructureUnderAttack),
			Text:    "structureID: 666\n",
		})
		// when
		got, err := s.relevantWebhooks(ctx, owner, n)
		// then
		if assert.NoError(t, err) && assert.Len(t, got, 1) {
			assert.Equal(t, w1.ID, got[0].ID)
		}
	})
	t.Run("should return no webhooks for an unsupported type", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID},
		})
		n := &app.Notification{OwnerID: owner.ID, Type: "UnknownType"}
		// when
		got, err := s.relevantWebhooks(ctx, owner, n)
		// then
		if assert.NoError(t, err) {
			assert.Empty(t, got)
		}
	})
}

func TestRelatedStructures(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should match customs offices by planet and type", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		owner := factory.CreateOwner()
		planet := factory.CreateEvePlanet()
		pocoType := factory.CreateEveType(storage.CreateEveTypeParams{ID: app.EveTypeCustomsOffice})
		structure := factory.CreateStructure(storage.UpdateOrCreateStructureParams{
			OwnerID:          owner.ID,
			EvePlanetID:      optional.New(planet.ID),
			EveTypeID:        optional.New(pocoType.ID),
			EveSolarSystemID: planet.SolarSystem.ID,
		})
		factory.CreateStructure(storage.UpdateOrCreateStructureParams{OwnerID: owner.ID})
		text := fmt.Sprintf("planetID: %d\ntypeID: %d\n", planet.ID, pocoType.ID)
		// when
		got, err := s.relatedStructures(ctx, owner, app.OrbitalAttacked, text)
		// then
		if assert.NoError(t, err) && assert.Len(t, got, 1) {
			assert.Equal(t, structure.StructureID, got[0].StructureID)
		}
	})
	t.Run("should match starbases by moon and type", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		owner := factory.CreateOwner()
		moon := factory.CreateEveMoon()
		towerType := factory.CreateEveTypeStarbase()
		structure := factory.CreateStructure(storage.UpdateOrCreateStructureParams{
			OwnerID:          owner.ID,
			EveMoonID:        optional.New(moon.ID),
			EveTypeID:        optional.New(towerType.ID),
			EveSolarSystemID: moon.SolarSystem.ID,
		})
		text := fmt.Sprintf("moonID: %d\ntypeID: %d\n", moon.ID, towerType.ID)
		// when
		got, err := s.relatedStructures(ctx, owner, app.TowerAlertMsg, text)
		// then
		if assert.NoError(t, err) && assert.Len(t, got, 1) {
			assert.Equal(t, structure.StructureID, got[0].StructureID)
		}
	})
	t.Run("should resolve reinforcement changes to all known structures", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		owner := factory.CreateOwner()
		s1 := factory.CreateStructure(storage.UpdateOrCreateStructureParams{OwnerID: owner.ID})
		s2 := factory.CreateStructure(storage.UpdateOrCreateStructureParams{OwnerID: owner.ID})
		text := fmt.Sprintf(
			"allStructureInfo:\n- - %d\n  - Alpha\n- - %d\n  - Bravo\n- - 99\n  - Unknown\n",
			s1.StructureID, s2.StructureID,
		)
		// when
		got, err := s.relatedStructures(ctx, owner, app.StructuresReinforcementChanged, text)
		// then
		if assert.NoError(t, err) {
			assert.Len(t, got, 2)
		}
	})
}

func TestIsNPCAttack(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	makeText := func(corporationID int32) string {
		return fmt.Sprintf(
			"charID: 1011\ncorpLinkData:\n- showinfo\n- 2\n- %d\ncorpName: Some Corp\nsolarsystemID: 30002537\nstructureID: 1000000000001\nstructureTypeID: 35832\n",
			corporationID,
		)
	}
	t.Run("should detect attack from NPC corporation", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		factory.CreateEveEntityCorporation(app.EveEntity{ID: 1000127, Name: "Guristas"})
		// when
		got, err := s.isNPCAttack(ctx, app.StructureUnderAttack, makeText(1000127))
		// then
		if assert.NoError(t, err) {
			assert.True(t, got)
		}
	})
	t.Run("should treat attack from NPC starter corporation as player attack", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		factory.CreateEveEntityCorporation(app.EveEntity{ID: 1000044, Name: "School of Applied Knowledge"})
		// when
		got, err := s.isNPCAttack(ctx, app.StructureUnderAttack, makeText(1000044))
		// then
		if assert.NoError(t, err) {
			assert.False(t, got)
		}
	})
	t.Run("should treat attack from player corporation as player attack", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		factory.CreateEveEntityCorporation(app.EveEntity{ID: 98000001, Name: "Player Corp"})
		// when
		got, err := s.isNPCAttack(ctx, app.StructureUnderAttack, makeText(98000001))
		// then
		if assert.NoError(t, err) {
			assert.False(t, got)
		}
	})
	t.Run("should ignore types without an aggressor", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := newService(st, app.DefaultConfig())
		// when
		got, err := s.isNPCAttack(ctx, app.StructureFuelAlert, "structureID: 1000000000001\n")
		// then
		if assert.NoError(t, err) {
			assert.False(t, got)
		}
	})
}
