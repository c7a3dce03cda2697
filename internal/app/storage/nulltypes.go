package storage

import (
	"database/sql"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

func newNullTimeFromOptional(o optional.Optional[time.Time]) sql.NullTime {
	if o.IsEmpty() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: o.MustValue(), Valid: true}
}

func optionalFromNullTime(v sql.NullTime) optional.Optional[time.Time] {
	if !v.Valid {
		return optional.Optional[time.Time]{}
	}
	return optional.New(v.Time)
}

func newNullInt64FromOptionalInt(o optional.Optional[int64]) sql.NullInt64 {
	if o.IsEmpty() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: o.MustValue(), Valid: true}
}

func optionalIntFromNullInt64(v sql.NullInt64) optional.Optional[int64] {
	if !v.Valid {
		return optional.Optional[int64]{}
	}
	return optional.New(v.Int64)
}

func newNullBoolFromOptional(o optional.Optional[bool]) sql.NullBool {
	if o.IsEmpty() {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: o.MustValue(), Valid: true}
}

func optionalFromNullBool(v sql.NullBool) optional.Optional[bool] {
	if !v.Valid {
		return optional.Optional[bool]{}
	}
	return optional.New(v.Bool)
}

func newNullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
