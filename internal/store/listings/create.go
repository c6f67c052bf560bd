package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aashish4533/bloombook/internal/store/dbx"
	"github.com/aashish4533/bloombook/internal/store/shared"
	"github.com/aashish4533/bloombook/internal/wizard"
)

// Create inserts a listing from the wizard's finished drafts.
func (s *Store) Create(ctx context.Context, sub wizard.Submission) (Listing, error) {
	imgs := sub.Book.Images
	if imgs == nil {
		imgs = []string{}
	}
	imagesJSON, err := json.Marshal(imgs)
	if err != nil {
		return Listing{}, err
	}

	var lat, lng *float64
	if c := sub.Location.Coordinates; c != nil {
		lat, lng = &c.Lat, &c.Lng
	}

	var (
		id, slug  string
		createdAt time.Time
	)
	err = dbx.WithinTxOpts(ctx, s.db, dbx.ReadCommitted, func(tx *sql.Tx) error {
		var err error
		slug, err = shared.EnsureUniqueSlug(ctx, tx, "listings", "slug", shared.Slugify(sub.Book.Title), 20)
		if err != nil {
			return err
		}
		err = dbx.Get(ctx, tx, insertSQL,
			sub.OwnerID, string(sub.Kind), slug,
			sub.Book.ISBN, sub.Book.Title, sub.Book.Author, sub.Book.Price,
			sub.Book.Condition, sub.Book.Category, nullIfEmpty(sub.Book.Description),
			nullIfZero(sub.Book.PublishedYear), nullIfEmpty(sub.Book.Language), nullIfZero(sub.Book.PageCount),
			string(imagesJSON),
			sub.Location.DeliveryMethod, sub.Location.Address, sub.Location.City, sub.Location.State, sub.Location.ZipCode,
			lat, lng,
			shared.Fold(sub.Book.Title+" "+sub.Book.Author+" "+sub.Book.ISBN),
		).Scan(&id, &createdAt)
		if err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return Listing{}, err
	}

	l := Listing{
		ID:             id,
		Slug:           slug,
		OwnerID:        sub.OwnerID,
		Kind:           string(sub.Kind),
		Status:         StatusActive,
		ISBN:           sub.Book.ISBN,
		Title:          sub.Book.Title,
		Author:         sub.Book.Author,
		Price:          sub.Book.Price,
		Condition:      sub.Book.Condition,
		Category:       sub.Book.Category,
		Description:    sub.Book.Description,
		Language:       sub.Book.Language,
		Images:         imgs,
		DeliveryMethod: sub.Location.DeliveryMethod,
		Address:        sub.Location.Address,
		City:           sub.Location.City,
		State:          sub.Location.State,
		ZipCode:        sub.Location.ZipCode,
		Latitude:       lat,
		Longitude:      lng,
		CreatedAt:      createdAt,
		URL:            "/listings/" + slug,
	}
	if sub.Book.PublishedYear > 0 {
		y := sub.Book.PublishedYear
		l.PublishedYear = &y
	}
	if sub.Book.PageCount > 0 {
		n := sub.Book.PageCount
		l.PageCount = &n
	}
	return l, nil
}

const insertSQL = `
INSERT INTO listings (
  owner_id, kind, slug,
  isbn, title, author, price,
  condition, category, description,
  published_year, language, page_count,
  images,
  delivery_method, address, city, state, zip_code,
  latitude, longitude,
  search_text
) VALUES (
  $1, $2, $3,
  $4, $5, $6, $7,
  $8, $9, $10,
  $11, $12, $13,
  $14::jsonb,
  $15, $16, $17, $18, $19,
  $20, $21,
  $22
)
RETURNING id::text, created_at`

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
