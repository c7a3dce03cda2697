package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

// Eve Entity categories in DB models
const (
	eveEntityAlliance      = "alliance"
	eveEntityCharacter     = "character"
	eveEntityConstellation = "constellation"
	eveEntityCorporation   = "corporation"
	eveEntityFaction       = "faction"
	eveEntityInventoryType = "inventory_type"
	eveEntityRegion        = "region"
	eveEntitySolarSystem   = "solar_system"
	eveEntityStation       = "station"
	eveEntityUndefined     = "undefined"
	eveEntityUnknown       = "unknown"
)

func eveEntityDBModelCategoryFromCategory(c app.EveEntityCategory) string {
	m := map[app.EveEntityCategory]string{
		app.EveEntityAlliance:      eveEntityAlliance,
		app.EveEntityCharacter:     eveEntityCharacter,
		app.EveEntityConstellation: eveEntityConstellation,
		app.EveEntityCorporation:   eveEntityCorporation,
		app.EveEntityFaction:       eveEntityFaction,
		app.EveEntityInventoryType: eveEntityInventoryType,
		app.EveEntityRegion:        eveEntityRegion,
		app.EveEntitySolarSystem:   eveEntitySolarSystem,
		app.EveEntityStation:       eveEntityStation,
		app.EveEntityUndefined:     eveEntityUndefined,
		app.EveEntityUnknown:       eveEntityUnknown,
	}
	c2, ok := m[c]
	if !ok {
		return eveEntityUnknown
	}
	return c2
}

func eveEntityCategoryFromDBModel(c string) app.EveEntityCategory {
	m := map[string]app.EveEntityCategory{
		eveEntityAlliance:      app.EveEntityAlliance,
		eveEntityCharacter:     app.EveEntityCharacter,
		eveEntityConstellation: app.EveEntityConstellation,
		eveEntityCorporation:   app.EveEntityCorporation,
		eveEntityFaction:       app.EveEntityFaction,
		eveEntityInventoryType: app.EveEntityInventoryType,
		eveEntityRegion:        app.EveEntityRegion,
		eveEntitySolarSystem:   app.EveEntitySolarSystem,
		eveEntityStation:       app.EveEntityStation,
		eveEntityUndefined:     app.EveEntityUndefined,
		eveEntityUnknown:       app.EveEntityUnknown,
	}
	c2, ok := m[c]
	if !ok {
		return app.EveEntityUnknown
	}
	return c2
}

type CreateEveEntityParams struct {
	ID       int32
	Name     string
	Category app.EveEntityCategory
}

func (arg CreateEveEntityParams) isValid() bool {
	return arg.ID != 0
}

func (st *Storage) CreateEveEntity(ctx context.Context, arg CreateEveEntityParams) (*app.EveEntity, error) {
	if !arg.isValid() {
		return nil, fmt.Errorf("CreateEveEntity: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_entities (id, category, name) VALUES (?, ?, ?)",
		arg.ID, eveEntityDBModelCategoryFromCategory(arg.Category), arg.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateEveEntity: %+v: %w", arg, err)
	}
	return &app.EveEntity{ID: arg.ID, Name: arg.Name, Category: arg.Category}, nil
}

func (st *Storage) GetEveEntity(ctx context.Context, id int32) (*app.EveEntity, error) {
	row := st.dbRO.QueryRowContext(ctx, "SELECT id, category, name FROM eve_entities WHERE id = ?", id)
	o, err := scanEveEntity(row)
	if err != nil {
		return nil, fmt.Errorf("GetEveEntity %d: %w", id, convertGetError(err))
	}
	return o, nil
}

func (st *Storage) GetOrCreateEveEntity(ctx context.Context, arg CreateEveEntityParams) (*app.EveEntity, error) {
	if !arg.isValid() {
		return nil, fmt.Errorf("GetOrCreateEveEntity: %+v: %w", arg, app.ErrInvalid)
	}
	var o *app.EveEntity
	err := st.transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT id, category, name FROM eve_entities WHERE id = ?", arg.ID)
		o2, err := scanEveEntity(row)
		if err == nil {
			o = o2
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(
			ctx,
			"INSERT INTO eve_entities (id, category, name) VALUES (?, ?, ?)",
			arg.ID, eveEntityDBModelCategoryFromCategory(arg.Category), arg.Name,
		)
		if err != nil {
			return err
		}
		o = &app.EveEntity{ID: arg.ID, Name: arg.Name, Category: arg.Category}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateEveEntity: %+v: %w", arg, err)
	}
	return o, nil
}

func (st *Storage) UpdateOrCreateEveEntity(ctx context.Context, arg CreateEveEntityParams) (*app.EveEntity, error) {
	if !arg.isValid() {
		return nil, fmt.Errorf("UpdateOrCreateEveEntity: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		`INSERT INTO eve_entities (id, category, name) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET category = excluded.category, name = excluded.name`,
		arg.ID, eveEntityDBModelCategoryFromCategory(arg.Category), arg.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("UpdateOrCreateEveEntity: %+v: %w", arg, err)
	}
	return &app.EveEntity{ID: arg.ID, Name: arg.Name, Category: arg.Category}, nil
}

// ListEveEntitiesForIDs returns the entities for the given IDs.
// Returns [app.ErrNotFound] when any of the IDs is missing.
func (st *Storage) ListEveEntitiesForIDs(ctx context.Context, ids []int32) ([]*app.EveEntity, error) {
	if len(ids) == 0 {
		return []*app.EveEntity{}, nil
	}
	query, args := queryWithIDs("SELECT id, category, name FROM eve_entities WHERE id IN (%s)", ids)
	rows, err := st.dbRO.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListEveEntitiesForIDs: %w", err)
	}
	defer rows.Close()
	oo := make([]*app.EveEntity, 0, len(ids))
	for rows.Next() {
		o, err := scanEveEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEveEntitiesForIDs: %w", err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEveEntitiesForIDs: %w", err)
	}
	if len(oo) < len(set.Of(ids...).Slice()) {
		return nil, fmt.Errorf("ListEveEntitiesForIDs: %w", app.ErrNotFound)
	}
	return oo, nil
}

// MissingEveEntityIDs returns which of the given IDs are not yet stored.
func (st *Storage) MissingEveEntityIDs(ctx context.Context, ids set.Set[int32]) (set.Set[int32], error) {
	if ids.Size() == 0 {
		return set.Set[int32]{}, nil
	}
	query, args := queryWithIDs("SELECT id FROM eve_entities WHERE id IN (%s)", ids.Slice())
	rows, err := st.dbRO.QueryContext(ctx, query, args...)
	if err != nil {
		return set.Set[int32]{}, fmt.Errorf("MissingEveEntityIDs: %w", err)
	}
	defer rows.Close()
	existing := set.Set[int32]{}
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return set.Set[int32]{}, fmt.Errorf("MissingEveEntityIDs: %w", err)
		}
		existing.Add(id)
	}
	if err := rows.Err(); err != nil {
		return set.Set[int32]{}, fmt.Errorf("MissingEveEntityIDs: %w", err)
	}
	return set.Difference(ids, existing), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEveEntity(r rowScanner) (*app.EveEntity, error) {
	var id int64
	var category, name string
	if err := r.Scan(&id, &category, &name); err != nil {
		return nil, err
	}
	return &app.EveEntity{
		ID:       int32(id),
		Category: eveEntityCategoryFromDBModel(category),
		Name:     name,
	}, nil
}

// queryWithIDs expands a query with an IN clause for the given IDs.
func queryWithIDs[T int32 | int64](format string, ids []T) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}
	return fmt.Sprintf(format, string(placeholders)), args
}
