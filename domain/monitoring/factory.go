package monitoring

import (
	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db      *gorm.DB
	logger  *log.Logger
	cache   Pinger
	storage Pinger
}

// NewMonitoringControllerFactory accepts a nil cache; storage is the object store.
func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Pinger, storage Pinger) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:      db,
		logger:  logger,
		cache:   cache,
		storage: storage,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.storage)
}
