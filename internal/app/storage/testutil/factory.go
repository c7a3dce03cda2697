// Package testutil contains factories for creating test objects in the repository
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/icrowley/fake"
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// EVE IDs
const (
	startIDAlliance      = 99_000_001
	startIDCelestials    = 40_000_001
	startIDCharacter     = 90_000_001
	startIDConstellation = 20_000_001
	startIDCorporation   = 98_000_001
	startIDFaction       = 500_001
	startIDInventoryType = 101
	startIDNotification  = 1_000_000_001
	startIDOther         = 10_001
	startIDRegion        = 10_000_001
	startIDSolarSystem   = 30_000_001
	startIDStructure     = 1_000_000_000_001
)

type Factory struct {
	st   *storage.Storage
	dbRO *sql.DB
}

func NewFactory(st *storage.Storage, dbRO *sql.DB) Factory {
	f := Factory{st: st, dbRO: dbRO}
	return f
}

func (f Factory) RandomTime() time.Time {
	hours := time.Duration(rand.IntN(100_000))
	seconds := time.Duration(rand.IntN(3600))
	d := hours*time.Hour + seconds*time.Second
	return time.Now().Add(-d).UTC()
}

func (f Factory) CreateEveEntity(args ...app.EveEntity) *app.EveEntity {
	ctx := context.Background()
	var arg app.EveEntity
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.Category == app.EveEntityUndefined {
		arg.Category = app.EveEntityCharacter
	}
	if arg.ID == 0 {
		m := map[app.EveEntityCategory]int64{
			app.EveEntityAlliance:      startIDAlliance,
			app.EveEntityCharacter:     startIDCharacter,
			app.EveEntityCorporation:   startIDCorporation,
			app.EveEntityFaction:       startIDFaction,
			app.EveEntityInventoryType: startIDInventoryType,
			app.EveEntitySolarSystem:   startIDSolarSystem,
		}
		start, ok := m[arg.Category]
		if !ok {
			start = startIDOther
		}
		arg.ID = int32(f.calcNewID("eve_entities", "id", start))
	}
	if arg.Name == "" {
		switch arg.Category {
		case app.EveEntityCharacter:
			arg.Name = fake.FullName()
		case app.EveEntityCorporation, app.EveEntityAlliance:
			arg.Name = fake.Company()
		case app.EveEntityFaction:
			arg.Name = fake.JobTitle()
		default:
			arg.Name = fmt.Sprintf("%s #%d", arg.Category, arg.ID)
		}
	}
	o, err := f.st.UpdateOrCreateEveEntity(ctx, storage.CreateEveEntityParams{
		ID:       arg.ID,
		Name:     arg.Name,
		Category: arg.Category,
	})
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveEntityAlliance(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntity(eveEntityWithCategory(args, app.EveEntityAlliance)...)
}

func (f Factory) CreateEveEntityCharacter(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntity(eveEntityWithCategory(args, app.EveEntityCharacter)...)
}

func (f Factory) CreateEveEntityCorporation(args ...app.EveEntity) *app.EveEntity {
	return f.CreateEveEntity(eveEntityWithCategory(args, app.EveEntityCorporation)...)
}

func eveEntityWithCategory(args []app.EveEntity, category app.EveEntityCategory) []app.EveEntity {
	var e app.EveEntity
	if len(args) > 0 {
		e = args[0]
	}
	e.Category = category
	return []app.EveEntity{e}
}

func (f Factory) CreateEveCategory(args ...storage.CreateEveCategoryParams) *app.EveCategory {
	var arg storage.CreateEveCategoryParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = int32(f.calcNewID("eve_categories", "id", 1))
	}
	if arg.Name == "" {
		arg.Name = fake.Industry()
	}
	o, err := f.st.CreateEveCategory(ctx, arg)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveGroup(args ...storage.CreateEveGroupParams) *app.EveGroup {
	var arg storage.CreateEveGroupParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = int32(f.calcNewID("eve_groups", "id", 1))
	}
	if arg.CategoryID == 0 {
		x := f.CreateEveCategory()
		arg.CategoryID = x.ID
	}
	if arg.Name == "" {
		arg.Name = fake.Industry()
	}
	if err := f.st.CreateEveGroup(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveGroup(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveType(args ...storage.CreateEveTypeParams) *app.EveType {
	var arg storage.CreateEveTypeParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = int32(f.calcNewID("eve_types", "id", startIDInventoryType))
	}
	if arg.GroupID == 0 {
		x := f.CreateEveGroup()
		arg.GroupID = x.ID
	}
	if arg.Name == "" {
		arg.Name = fake.ProductName()
	}
	if err := f.st.CreateEveType(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveType(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return o
}

// CreateEveTypeStructure creates and returns a type in the Upwell structure category.
func (f Factory) CreateEveTypeStructure() *app.EveType {
	g := f.CreateEveGroup(storage.CreateEveGroupParams{
		CategoryID: f.getOrCreateEveCategory(app.EveCategoryStructure).ID,
	})
	return f.CreateEveType(storage.CreateEveTypeParams{GroupID: g.ID})
}

// CreateEveTypeStarbase creates and returns a control tower type.
func (f Factory) CreateEveTypeStarbase() *app.EveType {
	g := f.getOrCreateEveGroup(app.EveGroupControlTower, app.EveCategoryStarbase)
	return f.CreateEveType(storage.CreateEveTypeParams{GroupID: g.ID})
}

func (f Factory) getOrCreateEveCategory(id int32) *app.EveCategory {
	ctx := context.Background()
	o, err := f.st.GetEveCategory(ctx, id)
	if err == nil {
		return o
	}
	return f.CreateEveCategory(storage.CreateEveCategoryParams{ID: id})
}

func (f Factory) getOrCreateEveGroup(id, categoryID int32) *app.EveGroup {
	ctx := context.Background()
	o, err := f.st.GetEveGroup(ctx, id)
	if err == nil {
		return o
	}
	return f.CreateEveGroup(storage.CreateEveGroupParams{
		ID:         id,
		CategoryID: f.getOrCreateEveCategory(categoryID).ID,
	})
}

func (f Factory) CreateEveRegion() *app.EveRegion {
	ctx := context.Background()
	id := int32(f.calcNewID("eve_regions", "id", startIDRegion))
	if err := f.st.CreateEveRegion(ctx, id, fake.Country()); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveRegion(ctx, id)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveConstellation() *app.EveConstellation {
	ctx := context.Background()
	id := int32(f.calcNewID("eve_constellations", "id", startIDConstellation))
	region := f.CreateEveRegion()
	if err := f.st.CreateEveConstellation(ctx, id, region.ID, fake.State()); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveConstellation(ctx, id)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveSolarSystem(args ...storage.CreateEveSolarSystemParams) *app.EveSolarSystem {
	var arg storage.CreateEveSolarSystemParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = int32(f.calcNewID("eve_solar_systems", "id", startIDSolarSystem))
	}
	if arg.Name == "" {
		arg.Name = fake.City()
	}
	if arg.ConstellationID == 0 {
		x := f.CreateEveConstellation()
		arg.ConstellationID = x.ID
	}
	if arg.SecurityStatus == 0 {
		arg.SecurityStatus = rand.Float32()*10 - 5
	}
	if err := f.st.CreateEveSolarSystem(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveSolarSystem(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEvePlanet() *app.EvePlanet {
	ctx := context.Background()
	id := int32(f.calcNewID("eve_planets", "id", startIDCelestials))
	system := f.CreateEveSolarSystem()
	name := fmt.Sprintf("%s %s", system.Name, roman(rand.IntN(10)+1))
	if err := f.st.CreateEvePlanet(ctx, id, system.ID, 0, name); err != nil {
		panic(err)
	}
	o, err := f.st.GetEvePlanet(ctx, id)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateEveMoon() *app.EveMoon {
	ctx := context.Background()
	id := int32(f.calcNewID("eve_moons", "id", startIDCelestials))
	system := f.CreateEveSolarSystem()
	name := fmt.Sprintf("%s %s - Moon %d", system.Name, roman(rand.IntN(10)+1), rand.IntN(20)+1)
	if err := f.st.CreateEveMoon(ctx, id, system.ID, name); err != nil {
		panic(err)
	}
	o, err := f.st.GetEveMoon(ctx, id)
	if err != nil {
		panic(err)
	}
	return o
}

func roman(n int) string {
	nums := []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}
	return nums[(n-1)%len(nums)]
}

func (f Factory) CreateWebhook(args ...storage.UpdateOrCreateWebhookParams) *app.Webhook {
	var arg storage.UpdateOrCreateWebhookParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.Name == "" {
		arg.Name = fmt.Sprintf("%s-%d", fake.Word(), f.calcNewID("webhooks", "id", 1))
	}
	if arg.URL == "" {
		arg.URL = fmt.Sprintf("https://www.example.com/webhooks/%s", arg.Name)
	}
	if arg.Language == (language.Tag{}) {
		arg.Language = language.English
	}
	if arg.NotificationTypes.Size() == 0 {
		arg.NotificationTypes = app.NotificationTypesSupported()
	}
	arg.IsActive = true
	id, err := f.st.UpdateOrCreateWebhook(ctx, arg)
	if err != nil {
		panic(err)
	}
	o, err := f.st.GetWebhook(ctx, id)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateOwner(args ...storage.UpdateOrCreateOwnerParams) *app.Owner {
	var arg storage.UpdateOrCreateOwnerParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	corporation := f.CreateEveEntityCorporation(app.EveEntity{ID: arg.ID})
	arg.ID = corporation.ID
	if !arg.AllianceID.IsEmpty() {
		f.CreateEveEntityAlliance(app.EveEntity{ID: arg.AllianceID.MustValue()})
	}
	if arg.CharacterID.IsEmpty() {
		character := f.CreateEveEntityCharacter()
		arg.CharacterID = optional.New(character.ID)
		arg.CharacterName = character.Name
	}
	if err := f.st.UpdateOrCreateOwner(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetOwner(ctx, arg.ID)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateStructure(args ...storage.UpdateOrCreateStructureParams) *app.Structure {
	var arg storage.UpdateOrCreateStructureParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.StructureID == 0 {
		arg.StructureID = f.calcNewID("structures", "id", startIDStructure)
	}
	if arg.OwnerID == 0 {
		o := f.CreateOwner()
		arg.OwnerID = o.ID
	}
	if arg.EveSolarSystemID == 0 {
		x := f.CreateEveSolarSystem()
		arg.EveSolarSystemID = x.ID
	}
	if arg.EveTypeID.IsEmpty() {
		x := f.CreateEveTypeStructure()
		arg.EveTypeID = optional.New(x.ID)
	}
	if arg.Name == "" {
		arg.Name = fake.Company()
	}
	if arg.State == app.StructureStateNA {
		arg.State = app.StructureStateShieldVulnerable
	}
	if err := f.st.UpdateOrCreateStructure(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetStructure(ctx, arg.StructureID)
	if err != nil {
		panic(err)
	}
	return o
}

func (f Factory) CreateStructureItem(args ...storage.CreateStructureItemParams) *app.StructureItem {
	var arg storage.CreateStructureItemParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.ID == 0 {
		arg.ID = f.calcNewID("structure_items", "id", startIDOther)
	}
	if arg.StructureID == 0 {
		o := f.CreateStructure()
		arg.StructureID = o.StructureID
	}
	if arg.EveTypeID == 0 {
		x := f.CreateEveType()
		arg.EveTypeID = x.ID
	}
	if arg.LocationFlag == "" {
		arg.LocationFlag = app.LocationFlagStructureFuel
	}
	if arg.Quantity == 0 {
		arg.Quantity = rand.IntN(10_000) + 1
	}
	oo, err := f.st.ListStructureItems(ctx, arg.StructureID)
	if err != nil {
		panic(err)
	}
	args2 := make([]storage.CreateStructureItemParams, 0, len(oo)+1)
	for _, o := range oo {
		args2 = append(args2, storage.CreateStructureItemParams{
			ID:           o.ID,
			EveTypeID:    o.Type.ID,
			IsSingleton:  o.IsSingleton,
			LocationFlag: o.LocationFlag,
			Quantity:     o.Quantity,
			StructureID:  o.StructureID,
		})
	}
	args2 = append(args2, arg)
	if err := f.st.ReplaceStructureItems(ctx, arg.StructureID, args2); err != nil {
		panic(err)
	}
	oo, err = f.st.ListStructureItems(ctx, arg.StructureID)
	if err != nil {
		panic(err)
	}
	for _, o := range oo {
		if o.ID == arg.ID {
			return o
		}
	}
	panic("structure item not found after create")
}

func (f Factory) CreateNotification(args ...storage.UpdateOrCreateNotificationParams) *app.Notification {
	var arg storage.UpdateOrCreateNotificationParams
	ctx := context.Background()
	if len(args) > 0 {
		arg = args[0]
	}
	if arg.NotificationID == 0 {
		arg.NotificationID = f.calcNewID("notifications", "notification_id", startIDNotification)
	}
	if arg.OwnerID == 0 {
		o := f.CreateOwner()
		arg.OwnerID = o.ID
	}
	if arg.SenderID == 0 {
		sender := f.CreateEveEntityCorporation()
		arg.SenderID = sender.ID
	}
	if arg.Type == "" {
		arg.Type = string(app.StructureUnderAttack)
	}
	if arg.Timestamp.IsZero() {
		arg.Timestamp = time.Now().UTC()
	}
	if err := f.st.UpdateOrCreateNotification(ctx, arg); err != nil {
		panic(err)
	}
	o, err := f.st.GetNotification(ctx, arg.OwnerID, arg.NotificationID)
	if err != nil {
		panic(err)
	}
	return o
}

func (f *Factory) calcNewID(table, idField string, start int64) int64 {
	if start < 1 {
		panic("start must be a positive number")
	}
	var vMax sql.NullInt64
	if err := f.dbRO.QueryRow(fmt.Sprintf("SELECT MAX(%s) FROM %s;", idField, table)).Scan(&vMax); err != nil {
		panic(err)
	}
	return max(vMax.Int64+1, start)
}
