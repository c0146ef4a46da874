package boundary

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/db"
)

// Level is an administrative hierarchy level.
type Level string

// Administrative levels, coarsest first.
const (
	LevelState       Level = "state"
	LevelDistrict    Level = "district"
	LevelSubdistrict Level = "subdistrict"
)

// ParseLevel accepts state, district or subdistrict.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelState, LevelDistrict, LevelSubdistrict:
		return l, nil
	}
	return "", eris.Errorf("boundary: unknown level %q (want state, district or subdistrict)", s)
}

type levelTable struct {
	table, code, name, parent string
}

// levelTables is the allowlist of tables and columns queried per level.
var levelTables = map[Level]levelTable{
	LevelState:       {table: "stp_state", code: "state_code", name: "state_name"},
	LevelDistrict:    {table: "stp_district", code: "district_code", name: "district_name", parent: "state_code"},
	LevelSubdistrict: {table: "stp_subdistrict", code: "subdistrict_code", name: "subdistrict_name", parent: "district_code"},
}

// Unit is one administrative area.
type Unit struct {
	Code       int    `json:"code"`
	Name       string `json:"name"`
	ParentCode int    `json:"parent_code,omitempty"`
}

// AdminSource reads administrative polygons from PostGIS.
type AdminSource struct {
	pool   db.Pool
	schema string
}

// NewAdminSource creates a source over tables in schema ("" = search path).
func NewAdminSource(pool db.Pool, schema string) *AdminSource {
	return &AdminSource{pool: pool, schema: schema}
}

func (s *AdminSource) table(l levelTable) string {
	if s.schema == "" {
		return pgx.Identifier{l.table}.Sanitize()
	}
	return pgx.Identifier{s.schema, l.table}.Sanitize()
}

// List returns the units of a level, optionally restricted to children of
// the given parent codes.
func (s *AdminSource) List(ctx context.Context, level Level, parents []int) ([]Unit, error) {
	lt, ok := levelTables[level]
	if !ok {
		return nil, eris.Errorf("boundary: unknown level %q", level)
	}

	parentCol := "0"
	if lt.parent != "" {
		parentCol = pgx.Identifier{lt.parent}.Sanitize()
	}
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		pgx.Identifier{lt.code}.Sanitize(), pgx.Identifier{lt.name}.Sanitize(), parentCol, s.table(lt))
	var args []any
	if len(parents) > 0 && lt.parent != "" {
		query += fmt.Sprintf(" WHERE %s = ANY($1)", parentCol)
		args = append(args, parents)
	}
	query += " ORDER BY " + pgx.Identifier{lt.name}.Sanitize()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: list %s", level)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.Code, &u.Name, &u.ParentCode); err != nil {
			return nil, eris.Wrapf(err, "boundary: scan %s", level)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "boundary: list %s", level)
	}
	return units, nil
}

// Lookup returns the union of the polygons of the given unit codes. The CRS
// is taken from the geometry SRID; SRID 0 leaves it unset.
func (s *AdminSource) Lookup(ctx context.Context, level Level, codes []int) (*Geometry, error) {
	lt, ok := levelTables[level]
	if !ok {
		return nil, eris.Errorf("boundary: unknown level %q", level)
	}
	if len(codes) == 0 {
		return nil, eris.Errorf("boundary: no %s codes given", level)
	}

	query := fmt.Sprintf("SELECT ST_AsEWKB(geom) FROM %s WHERE %s = ANY($1)",
		s.table(lt), pgx.Identifier{lt.code}.Sanitize())
	rows, err := s.pool.Query(ctx, query, codes)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: lookup %s", level)
	}
	defer rows.Close()

	mp := geom.NewMultiPolygon(geom.XY)
	srid := 0
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "boundary: scan %s geometry", level)
		}
		g, err := ewkb.Unmarshal(data)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: decode %s geometry", level)
		}
		if srid == 0 {
			srid = g.SRID()
		}
		if err := appendPolygons(mp, g); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "boundary: lookup %s", level)
	}
	if mp.NumPolygons() == 0 {
		return nil, eris.Errorf("boundary: no %s found for codes %v", level, codes)
	}

	var c crs.CRS
	if srid != 0 {
		c, err = crs.FromEPSG(srid)
		if err != nil {
			return nil, err
		}
	}
	return &Geometry{Polygons: mp, CRS: c}, nil
}
