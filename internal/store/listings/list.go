package listings

import (
	"context"
	"strconv"
	"strings"

	"github.com/aashish4533/bloombook/internal/store/shared"
)

// List returns a page of active listings and the total matching count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Listing, int, error) {
	where := []string{"l.status = 'active'"}
	args := []any{}
	i := 1

	add := func(cond string, arg any) {
		where = append(where, strings.ReplaceAll(cond, "$?", "$"+strconv.Itoa(i)))
		args = append(args, arg)
		i++
	}

	if q := shared.Fold(f.Query); q != "" {
		add(`l.search_text LIKE '%' || $? || '%'`, q)
	}
	if f.Kind != "" {
		add("l.kind = $?", f.Kind)
	}
	if f.Category != "" {
		add("l.category = $?", f.Category)
	}
	if f.Condition != "" {
		add("l.condition = $?", f.Condition)
	}
	if f.MinPrice != nil {
		add("l.price >= $?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("l.price <= $?", *f.MaxPrice)
	}
	if f.OwnerID != "" {
		add("l.owner_id = $?", f.OwnerID)
	}
	whereSQL := "WHERE " + strings.Join(where, " AND ") + "\n"

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings l `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := selectCols + whereSQL +
		"ORDER BY l.created_at DESC\n" +
		"LIMIT $" + strconv.Itoa(i) + " OFFSET $" + strconv.Itoa(i+1)

	rows, err := s.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}
