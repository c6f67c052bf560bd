// Package community stores discussion posts and their comments.
package community

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aashish4533/bloombook/internal/store/dbx"
	"github.com/aashish4533/bloombook/internal/validate"
)

var ErrNotFound = errors.New("post not found")

type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// ValidatePost trims and checks a new post.
func ValidatePost(title, body string) (string, string, validate.FieldErrors) {
	fe := validate.FieldErrors{}
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	check := func(_ string, err error) { fe.Add(err) }
	check(validate.Required("title", "Title", title))
	check(validate.MaxLen("title", "Title", title, 200))
	check(validate.Required("body", "Body", body))
	check(validate.MaxLen("body", "Body", body, 5000))
	return title, body, fe
}

// ValidateComment trims and checks a comment body.
func ValidateComment(body string) (string, validate.FieldErrors) {
	fe := validate.FieldErrors{}
	body = strings.TrimSpace(body)
	if _, err := validate.Required("body", "Comment", body); err != nil {
		fe.Add(err)
	} else if _, err := validate.MaxLen("body", "Comment", body, 2000); err != nil {
		fe.Add(err)
	}
	return body, fe
}

func (s *Store) CreatePost(ctx context.Context, authorID, title, body string) (Post, error) {
	p := Post{AuthorID: authorID, Title: title, Body: body}
	err := dbx.Get(ctx, s.db, `
INSERT INTO community_posts (author_id, title, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at`, authorID, title, body).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// ListPosts returns newest posts first with the total count.
func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]Post, int, error) {
	var total int
	if err := dbx.Get(ctx, s.db, `SELECT COUNT(*) FROM community_posts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := dbx.Query(ctx, s.db, `
SELECT id::text, author_id::text, title, body, comment_count, created_at
FROM community_posts
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CommentCount, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AddComment inserts a comment and bumps the post's comment_count in one
// transaction. Unknown posts yield ErrNotFound.
func (s *Store) AddComment(ctx context.Context, postID, authorID, body string) (Comment, error) {
	c := Comment{PostID: postID, AuthorID: authorID, Body: body}
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		if err := dbx.Get(ctx, tx, `SELECT EXISTS (SELECT 1 FROM community_posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if err := dbx.Get(ctx, tx, `
INSERT INTO community_comments (post_id, author_id, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at`, postID, authorID, body).Scan(&c.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		_, err := dbx.Exec(ctx, tx, `UPDATE community_posts SET comment_count = comment_count + 1 WHERE id = $1`, postID)
		return err
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns a post's comments oldest first.
func (s *Store) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var exists bool
	if err := dbx.Get(ctx, s.db, `SELECT EXISTS (SELECT 1 FROM community_posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	rows, err := dbx.Query(ctx, s.db, `
SELECT id::text, post_id::text, author_id::text, body, created_at
FROM community_comments
WHERE post_id = $1
ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
