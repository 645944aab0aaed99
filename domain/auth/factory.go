package auth

import (
	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"gorm.io/gorm"
)

type AuthServiceFactory interface {
	CreateService() AuthService
	CreateController() *router.RESTController
}

type DefaultAuthServiceFactory struct {
	db       *gorm.DB
	logger   *log.Logger
	sessions SessionIssuer
	options  ControllerOptions
}

func NewAuthServiceFactory(db *gorm.DB, logger *log.Logger, sessions SessionIssuer, options ControllerOptions) AuthServiceFactory {
	return &DefaultAuthServiceFactory{
		db:       db,
		logger:   logger,
		sessions: sessions,
		options:  options,
	}
}

func (f *DefaultAuthServiceFactory) CreateService() AuthService {
	return NewAuthService(f.logger, NewUserRepository(f.db), f.sessions)
}

func (f *DefaultAuthServiceFactory) CreateController() *router.RESTController {
	return NewAuthController(f, f.options)
}
