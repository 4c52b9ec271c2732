package dummydb

import (
	"sort"
	"strings"

	"github.com/edukit/eduhub/core/library"
)

type libraryRepository struct {
	db *libraryTable
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *DB) library.Repository {
	return &libraryRepository{db: db.library}
}

func (repo *libraryRepository) CreateResource(res library.Resource) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.resources[res.ID] = &res
	return nil
}

func (repo *libraryRepository) GetResourceByID(id string) (library.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return library.Resource{}, library.ErrNotFound
}

func (repo *libraryRepository) FilterResources(filter library.ResourceFilter) ([]library.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var resources []library.Resource
	for _, res := range repo.db.resources {
		if filter.Kind != "" && res.Kind != filter.Kind {
			continue
		}
		if !matchesMeta(res.Title, res.Subject, res.Grade, filter) {
			continue
		}
		resources = append(resources, *res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.After(resources[j].CreatedAt) })
	return resources, nil
}

func (repo *libraryRepository) DeleteResourcesByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.resources, id)
	}
	return nil
}

func (repo *libraryRepository) CreateVideo(vid library.Video) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.videos[vid.ID] = &vid
	return nil
}

func (repo *libraryRepository) GetVideoByID(id string) (library.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vid, ok := repo.db.videos[id]; ok {
		return *vid, nil
	}
	return library.Video{}, library.ErrNotFound
}

func (repo *libraryRepository) FilterVideos(filter library.ResourceFilter) ([]library.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var videos []library.Video
	for _, vid := range repo.db.videos {
		if !matchesMeta(vid.Title, vid.Subject, vid.Grade, filter) {
			continue
		}
		videos = append(videos, *vid)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].CreatedAt.After(videos[j].CreatedAt) })
	return videos, nil
}

func (repo *libraryRepository) DeleteVideosByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.videos, id)
	}
	return nil
}

func matchesMeta(title, subject, grade string, filter library.ResourceFilter) bool {
	if filter.Subject != "" && !strings.EqualFold(subject, filter.Subject) {
		return false
	}
	if filter.Grade != "" && grade != filter.Grade {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}
