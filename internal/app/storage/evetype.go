package storage

import (
	"context"
	"fmt"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

type CreateEveCategoryParams struct {
	ID          int32
	IsPublished bool
	Name        string
}

func (st *Storage) CreateEveCategory(ctx context.Context, arg CreateEveCategoryParams) (*app.EveCategory, error) {
	if arg.ID == 0 {
		return nil, fmt.Errorf("CreateEveCategory: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_categories (id, is_published, name) VALUES (?, ?, ?)",
		arg.ID, arg.IsPublished, arg.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateEveCategory: %+v: %w", arg, err)
	}
	return &app.EveCategory{ID: arg.ID, IsPublished: arg.IsPublished, Name: arg.Name}, nil
}

func (st *Storage) GetEveCategory(ctx context.Context, id int32) (*app.EveCategory, error) {
	var o app.EveCategory
	err := st.dbRO.QueryRowContext(
		ctx,
		"SELECT id, is_published, name FROM eve_categories WHERE id = ?",
		id,
	).Scan(&o.ID, &o.IsPublished, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEveCategory %d: %w", id, convertGetError(err))
	}
	return &o, nil
}

type CreateEveGroupParams struct {
	ID          int32
	CategoryID  int32
	IsPublished bool
	Name        string
}

func (st *Storage) CreateEveGroup(ctx context.Context, arg CreateEveGroupParams) error {
	if arg.ID == 0 {
		return fmt.Errorf("CreateEveGroup: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_groups (id, eve_category_id, is_published, name) VALUES (?, ?, ?, ?)",
		arg.ID, arg.CategoryID, arg.IsPublished, arg.Name,
	)
	if err != nil {
		return fmt.Errorf("CreateEveGroup: %+v: %w", arg, err)
	}
	return nil
}

func (st *Storage) GetEveGroup(ctx context.Context, id int32) (*app.EveGroup, error) {
	var o app.EveGroup
	var c app.EveCategory
	err := st.dbRO.QueryRowContext(
		ctx,
		`SELECT eg.id, eg.is_published, eg.name, ec.id, ec.is_published, ec.name
		FROM eve_groups eg
		JOIN eve_categories ec ON ec.id = eg.eve_category_id
		WHERE eg.id = ?`,
		id,
	).Scan(&o.ID, &o.IsPublished, &o.Name, &c.ID, &c.IsPublished, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEveGroup %d: %w", id, convertGetError(err))
	}
	o.Category = &c
	return &o, nil
}

type CreateEveTypeParams struct {
	ID          int32
	Description string
	GroupID     int32
	IsPublished bool
	Name        string
}

func (st *Storage) CreateEveType(ctx context.Context, arg CreateEveTypeParams) error {
	if arg.ID == 0 {
		return fmt.Errorf("CreateEveType: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_types (id, description, eve_group_id, is_published, name) VALUES (?, ?, ?, ?, ?)",
		arg.ID, arg.Description, arg.GroupID, arg.IsPublished, arg.Name,
	)
	if err != nil {
		return fmt.Errorf("CreateEveType: %+v: %w", arg, err)
	}
	return nil
}

func (st *Storage) GetEveType(ctx context.Context, id int32) (*app.EveType, error) {
	var o app.EveType
	var g app.EveGroup
	var c app.EveCategory
	err := st.dbRO.QueryRowContext(
		ctx,
		`SELECT et.id, et.description, et.is_published, et.name,
			eg.id, eg.is_published, eg.name,
			ec.id, ec.is_published, ec.name
		FROM eve_types et
		JOIN eve_groups eg ON eg.id = et.eve_group_id
		JOIN eve_categories ec ON ec.id = eg.eve_category_id
		WHERE et.id = ?`,
		id,
	).Scan(
		&o.ID, &o.Description, &o.IsPublished, &o.Name,
		&g.ID, &g.IsPublished, &g.Name,
		&c.ID, &c.IsPublished, &c.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("GetEveType %d: %w", id, convertGetError(err))
	}
	g.Category = &c
	o.Group = &g
	return &o, nil
}
