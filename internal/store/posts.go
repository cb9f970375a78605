package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/model"
)

const postColumns = `post_id, user_id, title, price, address, city, bedroom, bathroom, latitude, longitude, images, type, property, created_at`

func scanPostRow(row interface{ Scan(...any) error }) (model.Post, error) {
	var (
		id, userID pgtype.UUID
		p          model.Post
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&id, &userID, &p.Title, &p.Price, &p.Address, &p.City,
		&p.Bedroom, &p.Bathroom, &p.Latitude, &p.Longitude, &p.Images,
		&p.Type, &p.Property, &createdAt)
	if err != nil {
		return model.Post{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.UserID = uuid.UUID(userID.Bytes)
	p.CreatedAt = createdAt.Time
	return p, nil
}

type CreatePostParams struct {
	UserID    pgtype.UUID
	Title     string
	Price     int64
	Address   string
	City      string
	Bedroom   int32
	Bathroom  int32
	Latitude  string
	Longitude string
	Images    []string
	Type      string
	Property  string
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	query := `
		INSERT INTO posts (post_id, user_id, title, price, address, city, bedroom, bathroom, latitude, longitude, images, type, property)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + postColumns

	post, err := scanPostRow(q.db.QueryRow(ctx, query,
		pgUUID(uuid.New()), arg.UserID, arg.Title, arg.Price, arg.Address, arg.City,
		arg.Bedroom, arg.Bathroom, arg.Latitude, arg.Longitude, arg.Images,
		arg.Type, arg.Property))
	if err != nil {
		return model.Post{}, fmt.Errorf("store: create post: %w", err)
	}
	return post, nil
}

func (q *Queries) GetPost(ctx context.Context, postID uuid.UUID) (model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE post_id = $1`

	post, err := scanPostRow(q.db.QueryRow(ctx, query, pgUUID(postID)))
	if err != nil {
		return model.Post{}, wrapNotFound("store: get post", err)
	}
	return post, nil
}

// ListPostsParams are optional filters; zero values mean "no filter".
type ListPostsParams struct {
	City     string
	Type     string
	MinPrice int64
	MaxPrice int64
}

func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE ($1 = '' OR city ILIKE $1)
		  AND ($2 = '' OR type = $2)
		  AND ($3 = 0 OR price >= $3)
		  AND ($4 = 0 OR price <= $4)
		ORDER BY created_at DESC`

	rows, err := q.db.Query(ctx, query, arg.City, arg.Type, arg.MinPrice, arg.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list posts: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes a post the user owns.
func (q *Queries) DeletePost(ctx context.Context, postID, userID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM posts WHERE post_id = $1 AND user_id = $2`,
		pgUUID(postID), pgUUID(userID))
	if err != nil {
		return fmt.Errorf("store: delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: delete post: %w", ErrNotFound)
	}
	return nil
}

// ToggleSavedPost saves the post for the user, or unsaves it when already
// saved. Returns the resulting saved state.
func (q *Queries) ToggleSavedPost(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`,
		pgUUID(userID), pgUUID(postID))
	if err != nil {
		return false, fmt.Errorf("store: toggle saved post: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = q.db.Exec(ctx, `INSERT INTO saved_posts (user_id, post_id) VALUES ($1, $2)`,
		pgUUID(userID), pgUUID(postID))
	if err != nil {
		return false, fmt.Errorf("store: toggle saved post: %w", err)
	}
	return true, nil
}

// ListSavedPosts returns the posts a user has saved, newest save first.
func (q *Queries) ListSavedPosts(ctx context.Context, userID uuid.UUID) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN saved_posts sp ON sp.post_id = p.post_id
		WHERE sp.user_id = $1
		ORDER BY sp.created_at DESC`

	rows, err := q.db.Query(ctx, query, pgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("store: list saved posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list saved posts: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list saved posts: %w", err)
	}
	return posts, nil
}

// ListUserPosts returns the posts a user owns.
func (q *Queries) ListUserPosts(ctx context.Context, userID uuid.UUID) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := q.db.Query(ctx, query, pgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("store: list user posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list user posts: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list user posts: %w", err)
	}
	return posts, nil
}
