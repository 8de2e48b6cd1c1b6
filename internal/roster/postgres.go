package roster

import (
	"context"
	"database/sql"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
)

const (
	creatorQuery = `SELECT id, name, email, niche, description, country, province, district, status, verified, followers, creator_score, latitude, longitude FROM creators ORDER BY id`
	brandQuery   = `SELECT id, name, industry, description, contact_person, website, country, province, district, status, verified, followers, brand_score, latitude, longitude FROM brands ORDER BY id`
)

// PostgresProvider selects a whole roster table.
type PostgresProvider[T models.Entity] struct {
	db    *sql.DB
	table string
	query string
	scan  func(*sql.Rows) (T, error)
	log   logger.Logger
}

func NewCreatorPostgresProvider(db *sql.DB, log logger.Logger) *PostgresProvider[models.Creator] {
	return &PostgresProvider[models.Creator]{db: db, table: "creators", query: creatorQuery, scan: scanCreator, log: log}
}

func NewBrandPostgresProvider(db *sql.DB, log logger.Logger) *PostgresProvider[models.Brand] {
	return &PostgresProvider[models.Brand]{db: db, table: "brands", query: brandQuery, scan: scanBrand, log: log}
}

func (p *PostgresProvider[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := p.db.QueryContext(ctx, p.query)
	if err != nil {
		return nil, apperrors.NewRosterLoadFailedError("postgres:"+p.table, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		r, err := p.scan(rows)
		if err != nil {
			return nil, apperrors.NewRosterLoadFailedError("postgres:"+p.table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRosterLoadFailedError("postgres:"+p.table, err)
	}

	p.log.Info("roster loaded", map[string]interface{}{
		"source":  "postgres",
		"table":   p.table,
		"records": len(records),
	})
	return records, nil
}

// nullable columns shared by both tables
type locationColumns struct {
	province  sql.NullString
	district  sql.NullString
	score     sql.NullFloat64
	latitude  sql.NullFloat64
	longitude sql.NullFloat64
}

func (l locationColumns) scorePtr() *float64 {
	if !l.score.Valid {
		return nil
	}
	v := l.score.Float64
	return &v
}

func (l locationColumns) coordinates() *models.Coordinates {
	if !l.latitude.Valid || !l.longitude.Valid {
		return nil
	}
	return &models.Coordinates{Latitude: l.latitude.Float64, Longitude: l.longitude.Float64}
}

func scanCreator(rows *sql.Rows) (models.Creator, error) {
	var (
		c     models.Creator
		email sql.NullString
		desc  sql.NullString
		cols  locationColumns
	)
	err := rows.Scan(
		&c.ID, &c.Name, &email, &c.Niche, &desc,
		&c.Country, &cols.province, &cols.district,
		&c.Status, &c.Verified, &c.Followers,
		&cols.score, &cols.latitude, &cols.longitude,
	)
	if err != nil {
		return models.Creator{}, err
	}
	c.Email = email.String
	c.Description = desc.String
	c.Province = cols.province.String
	c.District = cols.district.String
	c.CreatorScore = cols.scorePtr()
	c.Coordinates = cols.coordinates()
	return c, nil
}

func scanBrand(rows *sql.Rows) (models.Brand, error) {
	var (
		b       models.Brand
		desc    sql.NullString
		contact sql.NullString
		website sql.NullString
		cols    locationColumns
	)
	err := rows.Scan(
		&b.ID, &b.Name, &b.Industry, &desc, &contact, &website,
		&b.Country, &cols.province, &cols.district,
		&b.Status, &b.Verified, &b.Followers,
		&cols.score, &cols.latitude, &cols.longitude,
	)
	if err != nil {
		return models.Brand{}, err
	}
	b.Description = desc.String
	b.ContactPerson = contact.String
	b.Website = website.String
	b.Province = cols.province.String
	b.District = cols.district.String
	b.BrandScore = cols.scorePtr()
	b.Coordinates = cols.coordinates()
	return b, nil
}
