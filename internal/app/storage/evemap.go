package storage

import (
	"context"
	"fmt"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

func (st *Storage) CreateEveRegion(ctx context.Context, id int32, name string) error {
	if id == 0 {
		return fmt.Errorf("CreateEveRegion %d: %w", id, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(ctx, "INSERT INTO eve_regions (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		return fmt.Errorf("CreateEveRegion %d: %w", id, err)
	}
	return nil
}

func (st *Storage) GetEveRegion(ctx context.Context, id int32) (*app.EveRegion, error) {
	var o app.EveRegion
	err := st.dbRO.QueryRowContext(ctx, "SELECT id, name FROM eve_regions WHERE id = ?", id).
		Scan(&o.ID, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEveRegion %d: %w", id, convertGetError(err))
	}
	return &o, nil
}

func (st *Storage) CreateEveConstellation(ctx context.Context, id, regionID int32, name string) error {
	if id == 0 {
		return fmt.Errorf("CreateEveConstellation %d: %w", id, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_constellations (id, eve_region_id, name) VALUES (?, ?, ?)",
		id, regionID, name,
	)
	if err != nil {
		return fmt.Errorf("CreateEveConstellation %d: %w", id, err)
	}
	return nil
}

func (st *Storage) GetEveConstellation(ctx context.Context, id int32) (*app.EveConstellation, error) {
	var o app.EveConstellation
	var r app.EveRegion
	err := st.dbRO.QueryRowContext(
		ctx,
		`SELECT ec.id, ec.name, er.id, er.name
		FROM eve_constellations ec
		JOIN eve_regions er ON er.id = ec.eve_region_id
		WHERE ec.id = ?`,
		id,
	).Scan(&o.ID, &o.Name, &r.ID, &r.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEveConstellation %d: %w", id, convertGetError(err))
	}
	o.Region = &r
	return &o, nil
}

type CreateEveSolarSystemParams struct {
	ID              int32
	ConstellationID int32
	Name            string
	SecurityStatus  float32
}

func (st *Storage) CreateEveSolarSystem(ctx context.Context, arg CreateEveSolarSystemParams) error {
	if arg.ID == 0 {
		return fmt.Errorf("CreateEveSolarSystem: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_solar_systems (id, eve_constellation_id, name, security_status) VALUES (?, ?, ?, ?)",
		arg.ID, arg.ConstellationID, arg.Name, arg.SecurityStatus,
	)
	if err != nil {
		return fmt.Errorf("CreateEveSolarSystem: %+v: %w", arg, err)
	}
	return nil
}

func (st *Storage) GetEveSolarSystem(ctx context.Context, id int32) (*app.EveSolarSystem, error) {
	o, err := st.getEveSolarSystem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetEveSolarSystem %d: %w", id, convertGetError(err))
	}
	return o, nil
}

func (st *Storage) getEveSolarSystem(ctx context.Context, id int32) (*app.EveSolarSystem, error) {
	var o app.EveSolarSystem
	var c app.EveConstellation
	var r app.EveRegion
	err := st.dbRO.QueryRowContext(
		ctx,
		`SELECT es.id, es.name, es.security_status, ec.id, ec.name, er.id, er.name
		FROM eve_solar_systems es
		JOIN eve_constellations ec ON ec.id = es.eve_constellation_id
		JOIN eve_regions er ON er.id = ec.eve_region_id
		WHERE es.id = ?`,
		id,
	).Scan(&o.ID, &o.Name, &o.SecurityStatus, &c.ID, &c.Name, &r.ID, &r.Name)
	if err != nil {
		return nil, err
	}
	c.Region = &r
	o.Constellation = &c
	return &o, nil
}

func (st *Storage) CreateEvePlanet(ctx context.Context, id, solarSystemID, typeID int32, name string) error {
	if id == 0 {
		return fmt.Errorf("CreateEvePlanet %d: %w", id, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_planets (id, eve_solar_system_id, eve_type_id, name) VALUES (?, ?, ?, ?)",
		id, solarSystemID, newNullInt64(int64(typeID)), name,
	)
	if err != nil {
		return fmt.Errorf("CreateEvePlanet %d: %w", id, err)
	}
	return nil
}

func (st *Storage) GetEvePlanet(ctx context.Context, id int32) (*app.EvePlanet, error) {
	var o app.EvePlanet
	var solarSystemID int64
	err := st.dbRO.QueryRowContext(
		ctx,
		"SELECT id, eve_solar_system_id, name FROM eve_planets WHERE id = ?",
		id,
	).Scan(&o.ID, &solarSystemID, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEvePlanet %d: %w", id, convertGetError(err))
	}
	system, err := st.getEveSolarSystem(ctx, int32(solarSystemID))
	if err != nil {
		return nil, fmt.Errorf("GetEvePlanet %d: %w", id, convertGetError(err))
	}
	o.SolarSystem = system
	return &o, nil
}

func (st *Storage) CreateEveMoon(ctx context.Context, id, solarSystemID int32, name string) error {
	if id == 0 {
		return fmt.Errorf("CreateEveMoon %d: %w", id, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		"INSERT INTO eve_moons (id, eve_solar_system_id, name) VALUES (?, ?, ?)",
		id, solarSystemID, name,
	)
	if err != nil {
		return fmt.Errorf("CreateEveMoon %d: %w", id, err)
	}
	return nil
}

func (st *Storage) GetEveMoon(ctx context.Context, id int32) (*app.EveMoon, error) {
	var o app.EveMoon
	var solarSystemID int64
	err := st.dbRO.QueryRowContext(
		ctx,
		"SELECT id, eve_solar_system_id, name FROM eve_moons WHERE id = ?",
		id,
	).Scan(&o.ID, &solarSystemID, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("GetEveMoon %d: %w", id, convertGetError(err))
	}
	system, err := st.getEveSolarSystem(ctx, int32(solarSystemID))
	if err != nil {
		return nil, fmt.Errorf("GetEveMoon %d: %w", id, convertGetError(err))
	}
	o.SolarSystem = system
	return &o, nil
}
