// Package shared holds text and key helpers used by more than one store.
package shared

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aashish4533/bloombook/internal/store/dbx"
)

const maxSlugLen = 80

// stripMarks decomposes, drops combining marks and recomposes: "año" -> "ano".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases s, strips accents and collapses whitespace. Listing search
// text is stored folded and queries are folded the same way.
func Fold(s string) string {
	return strings.Join(strings.Fields(stripMarks(strings.ToLower(s))), " ")
}

// Slugify builds a URL slug of [a-z0-9] words joined by single dashes.
// Titles with nothing usable become "n-a".
func Slugify(s string) string {
	words := strings.FieldsFunc(stripMarks(strings.ToLower(s)), func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	slug := strings.Join(kept, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "n-a"
	}
	return slug
}

// EnsureUniqueSlug returns base, or base-1 .. base-maxSuffix, whichever is
// free first in table.col. table and col are trusted identifiers.
func EnsureUniqueSlug(ctx context.Context, c dbx.Conn, table, col, base string, maxSuffix int) (string, error) {
	q := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE ` + col + ` = $1)`
	for i := 0; i <= maxSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		var taken bool
		if err := dbx.Get(ctx, c, q, candidate).Scan(&taken); err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d tries", base, maxSuffix+1)
}

// IsUUID accepts only the canonical 36-character form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ResolveKeyCond lets routes take either an id or a slug. It returns the
// WHERE condition on alias and its argument.
func ResolveKeyCond(alias, key string, argN int) (string, any) {
	if IsUUID(key) {
		return fmt.Sprintf("%s.id = $%d", alias, argN), strings.ToLower(key)
	}
	return fmt.Sprintf("%s.slug = $%d", alias, argN), key
}
