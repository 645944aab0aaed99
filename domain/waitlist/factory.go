package waitlist

import (
	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	// CreateService wires a service; metrics may be nil.
	CreateService(metrics prometheus.Registerer) WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db                 *gorm.DB
	logger             *log.Logger
	store              AttachmentStore
	maxAttachmentBytes int64
}

func NewWaitlistServiceFactory(db *gorm.DB, logger *log.Logger, store AttachmentStore, maxAttachmentBytes int64) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:                 db,
		logger:             logger,
		store:              store,
		maxAttachmentBytes: maxAttachmentBytes,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService(metrics prometheus.Registerer) WaitlistService {
	repository := NewWaitlistRepository(f.db)
	return NewWaitlistService(f.logger, repository, f.store, ServiceOptions{
		MaxAttachmentBytes: f.maxAttachmentBytes,
		Metrics:            metrics,
	})
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f)
}
