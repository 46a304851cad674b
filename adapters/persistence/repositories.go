package persistence

import (
	"github.com/khoahotran/pictures/internal/domain/album"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/person"
	"github.com/khoahotran/pictures/internal/domain/setting"
	"github.com/khoahotran/pictures/internal/domain/tag"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/logger"
)

// Repositories are all views over one Store.
type Repositories struct {
	Media    media.Repository
	Trash    trash.Repository
	Albums   album.Repository
	Tags     tag.Repository
	Settings setting.Repository
	People   person.Repository
}

func NewRepositories(store *Store, log logger.Logger) Repositories {
	return Repositories{
		Media:    NewBoltMediaRepo(store, log),
		Trash:    NewBoltTrashRepo(store, log),
		Albums:   NewBoltAlbumRepo(store, log),
		Tags:     NewBoltTagRepo(store, log),
		Settings: NewBoltSettingRepo(store, log),
		People:   NewBoltPersonRepo(store, log),
	}
}
