package library

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/user"
)

var (
	ErrNotFound        = errors.New("library item not found")
	ErrUploadForbidden = errors.New("students cannot upload library items")
	ErrDeleteForbidden = errors.New("only the uploader may delete a library item")
)

const downloadLinkExpiry = 15 * time.Minute

type (
	Repository interface {
		CreateResource(res Resource) error
		GetResourceByID(id string) (Resource, error)
		FilterResources(filter ResourceFilter) ([]Resource, error)
		DeleteResourcesByID(ids ...string) error

		CreateVideo(vid Video) error
		GetVideoByID(id string) (Video, error)
		FilterVideos(filter ResourceFilter) ([]Video, error)
		DeleteVideosByID(ids ...string) error
	}

	Service interface {
		UploadResource(ctx context.Context, actor user.User, nr NewResource, body io.Reader, size int64, contentType string) (Resource, error)
		Resources(filter ResourceFilter) ([]Resource, error)
		ResourceDownloadURL(ctx context.Context, id string) (string, error)
		DeleteResource(ctx context.Context, actor user.User, id string) error

		UploadVideo(ctx context.Context, actor user.User, nv NewVideo, body io.Reader, size int64, contentType string) (Video, error)
		Videos(filter ResourceFilter) ([]Video, error)
		VideoDownloadURL(ctx context.Context, id string) (string, error)
		DeleteVideo(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo   Repository
		blobs  core.BlobStore
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, blobs core.BlobStore, logger core.Logger) Service {
	return &service{repo: repo, blobs: blobs, logger: logger}
}

// UploadResource stores the file body then the metadata record. Students
// only consume the library; uploads are for teachers, schools and admins.
func (svc *service) UploadResource(
	ctx context.Context, actor user.User, nr NewResource, body io.Reader, size int64, contentType string,
) (Resource, error) {
	if err := canUpload(actor); err != nil {
		return Resource{}, err
	}

	res := Resource{
		ID:          uuid.New().String(),
		Title:       nr.Title,
		Kind:        nr.Kind,
		Subject:     nr.Subject,
		Grade:       nr.Grade,
		Size:        size,
		ContentType: contentType,
		UploadedBy:  actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	res.BlobKey = fmt.Sprintf("library/resources/%s", res.ID)

	if err := svc.blobs.Put(ctx, res.BlobKey, body, size, contentType); err != nil {
		return Resource{}, errors.Wrap(err, "storing resource file")
	}
	if err := svc.repo.CreateResource(res); err != nil {
		// keep storage consistent with the metadata
		if rmErr := svc.blobs.Remove(ctx, res.BlobKey); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("library: orphaned blob %s: %v", res.BlobKey, rmErr), rmErr)
		}
		return Resource{}, errors.Wrap(err, "creating resource")
	}
	return res, nil
}

func (svc *service) Resources(filter ResourceFilter) ([]Resource, error) {
	filter.Clean()
	return svc.repo.FilterResources(filter)
}

func (svc *service) ResourceDownloadURL(ctx context.Context, id string) (string, error) {
	res, err := svc.repo.GetResourceByID(id)
	if err != nil {
		return "", err
	}
	return svc.blobs.PresignGet(ctx, res.BlobKey, downloadLinkExpiry)
}

func (svc *service) DeleteResource(ctx context.Context, actor user.User, id string) error {
	res, err := svc.repo.GetResourceByID(id)
	if err != nil {
		return err
	}
	if res.UploadedBy != actor.ID && !actor.IsAdmin() {
		return ErrDeleteForbidden
	}
	if err = svc.repo.DeleteResourcesByID(id); err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	if err = svc.blobs.Remove(ctx, res.BlobKey); err != nil {
		svc.logger.Warn(fmt.Sprintf("library: orphaned blob %s: %v", res.BlobKey, err), err)
	}
	return nil
}

func (svc *service) UploadVideo(
	ctx context.Context, actor user.User, nv NewVideo, body io.Reader, size int64, contentType string,
) (Video, error) {
	if err := canUpload(actor); err != nil {
		return Video{}, err
	}

	vid := Video{
		ID:          uuid.New().String(),
		Title:       nv.Title,
		Subject:     nv.Subject,
		Grade:       nv.Grade,
		Size:        size,
		ContentType: contentType,
		Duration:    nv.Duration,
		UploadedBy:  actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	vid.BlobKey = fmt.Sprintf("library/videos/%s", vid.ID)

	if err := svc.blobs.Put(ctx, vid.BlobKey, body, size, contentType); err != nil {
		return Video{}, errors.Wrap(err, "storing video file")
	}
	if err := svc.repo.CreateVideo(vid); err != nil {
		if rmErr := svc.blobs.Remove(ctx, vid.BlobKey); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("library: orphaned blob %s: %v", vid.BlobKey, rmErr), rmErr)
		}
		return Video{}, errors.Wrap(err, "creating video")
	}
	return vid, nil
}

func (svc *service) Videos(filter ResourceFilter) ([]Video, error) {
	filter.Clean()
	return svc.repo.FilterVideos(filter)
}

func (svc *service) VideoDownloadURL(ctx context.Context, id string) (string, error) {
	vid, err := svc.repo.GetVideoByID(id)
	if err != nil {
		return "", err
	}
	return svc.blobs.PresignGet(ctx, vid.BlobKey, downloadLinkExpiry)
}

func (svc *service) DeleteVideo(ctx context.Context, actor user.User, id string) error {
	vid, err := svc.repo.GetVideoByID(id)
	if err != nil {
		return err
	}
	if vid.UploadedBy != actor.ID && !actor.IsAdmin() {
		return ErrDeleteForbidden
	}
	if err = svc.repo.DeleteVideosByID(id); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	if err = svc.blobs.Remove(ctx, vid.BlobKey); err != nil {
		svc.logger.Warn(fmt.Sprintf("library: orphaned blob %s: %v", vid.BlobKey, err), err)
	}
	return nil
}

func canUpload(actor user.User) error {
	if actor.IsTeacher() || actor.IsSchool() || actor.IsAdmin() {
		return nil
	}
	return ErrUploadForbidden
}
