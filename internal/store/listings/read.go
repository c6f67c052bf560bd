package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aashish4533/bloombook/internal/store/shared"
)

const selectCols = `
SELECT
  l.id::text, l.slug, l.owner_id::text, l.kind, l.status,
  l.isbn, l.title, l.author, l.price::float8,
  l.condition, l.category, COALESCE(l.description, ''),
  l.published_year, COALESCE(l.language, ''), l.page_count,
  l.images,
  l.delivery_method, l.address, l.city, l.state, l.zip_code,
  l.latitude, l.longitude,
  l.created_at
FROM listings l
`

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(r scanner) (Listing, error) {
	var (
		l          Listing
		year, pgs  sql.NullInt64
		lat, lng   sql.NullFloat64
		imagesJSON []byte
	)
	err := r.Scan(
		&l.ID, &l.Slug, &l.OwnerID, &l.Kind, &l.Status,
		&l.ISBN, &l.Title, &l.Author, &l.Price,
		&l.Condition, &l.Category, &l.Description,
		&year, &l.Language, &pgs,
		&imagesJSON,
		&l.DeliveryMethod, &l.Address, &l.City, &l.State, &l.ZipCode,
		&lat, &lng,
		&l.CreatedAt,
	)
	if err != nil {
		return Listing{}, err
	}
	if year.Valid {
		y := int(year.Int64)
		l.PublishedYear = &y
	}
	if pgs.Valid {
		n := int(pgs.Int64)
		l.PageCount = &n
	}
	if lat.Valid && lng.Valid {
		l.Latitude, l.Longitude = &lat.Float64, &lng.Float64
	}
	if err := json.Unmarshal(imagesJSON, &l.Images); err != nil {
		return Listing{}, fmt.Errorf("listings: decode images: %w", err)
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	l.URL = "/listings/" + l.Slug
	return l, nil
}

// Get returns an active listing by UUID or slug.
func (s *Store) Get(ctx context.Context, key string) (Listing, error) {
	if l, ok := s.cache.Get(key); ok {
		return l, nil
	}
	cond, arg := shared.ResolveKeyCond("l", key, 1)
	q := selectCols + `WHERE ` + cond + ` AND l.status = 'active'`

	l, err := scanListing(s.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, err
	}
	s.cache.Add(l.ID, l)
	s.cache.Add(l.Slug, l)
	return l, nil
}
