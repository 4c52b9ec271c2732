package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/post"
)

type postRepository struct {
	db *sqlx.DB
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) post.Repository {
	return &postRepository{db: db}
}

const postColumns = `id, author_id, author_name, author_role, content, likes, created_at, updated_at`

func (repo *postRepository) CreatePost(p post.Post) error {
	q := `INSERT INTO post (` + postColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.Exec(q, p.ID, p.AuthorID, p.AuthorName, p.AuthorRole, p.Content, p.Likes, p.CreatedAt, p.UpdatedAt)
	return errors.Wrap(err, "creating post")
}

func (repo *postRepository) GetPostByID(id string) (post.Post, error) {
	var p post.Post
	q := `SELECT ` + postColumns + ` FROM post WHERE id = $1`
	if err := repo.db.QueryRowx(q, id).Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorRole, &p.Content, &p.Likes, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, errors.Wrap(err, "getting post")
	}
	return p, nil
}

func (repo *postRepository) LatestPosts(limit int) ([]post.Post, error) {
	q := `SELECT ` + postColumns + ` FROM post ORDER BY created_at DESC LIMIT $1`
	rows, err := repo.db.Queryx(q, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	defer func() { _ = rows.Close() }()

	posts := make([]post.Post, 0, limit)
	for rows.Next() {
		var p post.Post
		if err = rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorRole, &p.Content, &p.Likes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning post")
		}
		posts = append(posts, p)
	}
	return posts, errors.Wrap(rows.Err(), "querying posts")
}

func (repo *postRepository) IncrementPostLikes(id string) (int, error) {
	var likes int
	q := `UPDATE post SET likes = likes + 1 WHERE id = $1 RETURNING likes`
	if err := repo.db.Get(&likes, q, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, post.ErrNotFound
		}
		return 0, errors.Wrap(err, "liking post")
	}
	return likes, nil
}

func (repo *postRepository) DeletePostsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM post WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting posts")
}
