package database

import (
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/library"
)

type libraryRepository struct {
	db *sqlx.DB
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *sqlx.DB) library.Repository {
	return &libraryRepository{db: db}
}

const (
	resourceColumns = `id, title, kind, subject, grade, blob_key, size, content_type, uploaded_by, created_at`
	videoColumns    = `id, title, subject, grade, blob_key, size, content_type, duration, uploaded_by, created_at`
)

func (repo *libraryRepository) CreateResource(res library.Resource) error {
	q := `INSERT INTO resource (` + resourceColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.Exec(q,
		res.ID, res.Title, res.Kind, res.Subject, res.Grade, res.BlobKey, res.Size, res.ContentType, res.UploadedBy, res.CreatedAt)
	return errors.Wrap(err, "creating resource")
}

func (repo *libraryRepository) GetResourceByID(id string) (library.Resource, error) {
	var res library.Resource
	q := `SELECT ` + resourceColumns + ` FROM resource WHERE id = $1`
	if err := repo.db.QueryRowx(q, id).Scan(
		&res.ID, &res.Title, &res.Kind, &res.Subject, &res.Grade, &res.BlobKey,
		&res.Size, &res.ContentType, &res.UploadedBy, &res.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return library.Resource{}, library.ErrNotFound
		}
		return library.Resource{}, errors.Wrap(err, "getting resource")
	}
	return res, nil
}

func (repo *libraryRepository) FilterResources(filter library.ResourceFilter) ([]library.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resource` + filterClause(filter, true)
	args := filterArgs(filter, true)

	rows, err := repo.db.Queryx(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	defer func() { _ = rows.Close() }()

	var resources []library.Resource
	for rows.Next() {
		var res library.Resource
		if err = rows.Scan(
			&res.ID, &res.Title, &res.Kind, &res.Subject, &res.Grade, &res.BlobKey,
			&res.Size, &res.ContentType, &res.UploadedBy, &res.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning resource")
		}
		resources = append(resources, res)
	}
	return resources, errors.Wrap(rows.Err(), "querying resources")
}

func (repo *libraryRepository) DeleteResourcesByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM resource WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting resources")
}

func (repo *libraryRepository) CreateVideo(vid library.Video) error {
	q := `INSERT INTO video (` + videoColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.Exec(q,
		vid.ID, vid.Title, vid.Subject, vid.Grade, vid.BlobKey, vid.Size, vid.ContentType, vid.Duration, vid.UploadedBy, vid.CreatedAt)
	return errors.Wrap(err, "creating video")
}

func (repo *libraryRepository) GetVideoByID(id string) (library.Video, error) {
	var vid library.Video
	q := `SELECT ` + videoColumns + ` FROM video WHERE id = $1`
	if err := repo.db.QueryRowx(q, id).Scan(
		&vid.ID, &vid.Title, &vid.Subject, &vid.Grade, &vid.BlobKey,
		&vid.Size, &vid.ContentType, &vid.Duration, &vid.UploadedBy, &vid.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return library.Video{}, library.ErrNotFound
		}
		return library.Video{}, errors.Wrap(err, "getting video")
	}
	return vid, nil
}

func (repo *libraryRepository) FilterVideos(filter library.ResourceFilter) ([]library.Video, error) {
	q := `SELECT ` + videoColumns + ` FROM video` + filterClause(filter, false)
	args := filterArgs(filter, false)

	rows, err := repo.db.Queryx(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	defer func() { _ = rows.Close() }()

	var videos []library.Video
	for rows.Next() {
		var vid library.Video
		if err = rows.Scan(
			&vid.ID, &vid.Title, &vid.Subject, &vid.Grade, &vid.BlobKey,
			&vid.Size, &vid.ContentType, &vid.Duration, &vid.UploadedBy, &vid.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning video")
		}
		videos = append(videos, vid)
	}
	return videos, errors.Wrap(rows.Err(), "querying videos")
}

func (repo *libraryRepository) DeleteVideosByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM video WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting videos")
}

// filterClause and filterArgs must agree on placeholder order. Kind only
// applies to resources; videos have no kind column.
func filterClause(filter library.ResourceFilter, withKind bool) string {
	clause := ` WHERE 1=1`
	n := 0
	next := func() string {
		n++
		return "$" + strconv.Itoa(n)
	}

	if withKind && filter.Kind != "" {
		clause += ` AND kind = ` + next()
	}
	if filter.Subject != "" {
		clause += ` AND subject ILIKE ` + next()
	}
	if filter.Grade != "" {
		clause += ` AND grade = ` + next()
	}
	if filter.Search != "" {
		clause += ` AND title ILIKE ` + next()
	}
	return clause + ` ORDER BY created_at DESC`
}

func filterArgs(filter library.ResourceFilter, withKind bool) []interface{} {
	var args []interface{}
	if withKind && filter.Kind != "" {
		args = append(args, filter.Kind)
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
	}
	if filter.Grade != "" {
		args = append(args, filter.Grade)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
	}
	return args
}
