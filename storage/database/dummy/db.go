package dummydb

import (
	"sync"

	"github.com/edukit/eduhub/core/library"
	"github.com/edukit/eduhub/core/messaging"
	"github.com/edukit/eduhub/core/post"
	"github.com/edukit/eduhub/core/user"
)

type (
	DB struct {
		user    *userTable
		post    *postTable
		library *libraryTable
		message *messageTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	postTable struct {
		sync.RWMutex
		table map[string]*post.Post
	}

	libraryTable struct {
		sync.RWMutex
		resources map[string]*library.Resource
		videos    map[string]*library.Video
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*messaging.Message
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		post:    &postTable{table: make(map[string]*post.Post)},
		library: &libraryTable{resources: make(map[string]*library.Resource), videos: make(map[string]*library.Video)},
		message: &messageTable{table: make(map[string]*messaging.Message)},
	}
	return db, nil
}
