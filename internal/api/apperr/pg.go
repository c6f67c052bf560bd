package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// constraint name -> the field and message a client can act on
var constraints = map[string]FieldError{
	"users_email_key":                 {Field: "email", Code: "unique", Message: "Email is already registered"},
	"listings_slug_key":               {Field: "slug", Code: "unique", Message: "A listing with this URL already exists"},
	"listings_owner_id_fkey":          {Field: "owner_id", Code: "fk", Message: "Listing owner does not exist"},
	"listings_price_check":            {Field: "price", Code: "check", Message: "Price must be greater than 0"},
	"community_comments_post_id_fkey": {Field: "post_id", Code: "fk", Message: "Post does not exist"},
	"community_posts_author_id_fkey":  {Field: "author_id", Code: "fk", Message: "Author does not exist"},
}

// column names we are willing to echo back when no constraint matched
var knownColumns = []string{"email", "slug", "isbn", "owner_id", "post_id", "author_id", "id"}

type pgRule struct {
	status    int
	title     string
	code      string
	message   string
	retryable bool
}

// keyed by SQLSTATE
var pgRules = map[string]pgRule{
	"23505": {http.StatusConflict, "Conflict", "unique", "value already exists", false},
	"23503": {http.StatusConflict, "Conflict", "fk", "referenced record does not exist", false},
	"23502": {http.StatusBadRequest, "Bad Request", "not_null", "required field is missing", false},
	"23514": {http.StatusUnprocessableEntity, "Validation failed", "check", "value is out of range", false},
	"22P02": {http.StatusBadRequest, "Bad Request", "invalid", "invalid format", false},
	"22001": {http.StatusBadRequest, "Bad Request", "too_long", "value is too long", false},
	"40001": {http.StatusConflict, "Conflict", "", "transaction conflict, please retry", true},
	"40P01": {http.StatusConflict, "Conflict", "", "deadlock detected, please retry", true},
	"57014": {http.StatusServiceUnavailable, "Service Unavailable", "", "query canceled", true},
}

func fieldFor(pg *pgconn.PgError) (FieldError, bool) {
	if fe, ok := constraints[pg.ConstraintName]; ok {
		return fe, true
	}
	if pg.ColumnName != "" {
		return FieldError{Field: pg.ColumnName}, false
	}
	for _, k := range knownColumns {
		if strings.Contains(pg.Detail, k) {
			return FieldError{Field: k}, false
		}
	}
	return FieldError{}, false
}

// FromPG maps a *pgconn.PgError anywhere in err's chain to a Problem.
// Unknown SQLSTATEs become a bare 500; connection-class errors (08xxx) a
// retryable 503.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	rule, ok := pgRules[pg.Code]
	if !ok {
		if strings.HasPrefix(pg.Code, "08") {
			return Problem{Status: http.StatusServiceUnavailable, Title: "Service Unavailable", Retryable: true}, true
		}
		return Problem{Status: http.StatusInternalServerError, Title: "Database error"}, true
	}

	p := Problem{Status: rule.status, Title: rule.title, Retryable: rule.retryable}
	if rule.code == "" {
		p.Detail = rule.message
		return p, true
	}

	fe, exact := fieldFor(pg)
	if !exact {
		if fe.Field == "" {
			fe.Field = "id"
		}
		fe.Code, fe.Message = rule.code, rule.message
	}
	p.FieldErrors = []FieldError{fe}
	return p, true
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, r, p)
		return true
	}
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}
