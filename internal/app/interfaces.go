package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/config"
	"github.com/agunghasbi/be-ekuator/internal/auth"
	"github.com/agunghasbi/be-ekuator/internal/catalog"
	"github.com/agunghasbi/be-ekuator/internal/purchase"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ServiceProvider exposes the business services used by the HTTP layer
type ServiceProvider interface {
	Auth() *auth.Service
	Catalog() *catalog.Service
	Purchases() *purchase.Service
	Metrics() *metrics.Store
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	ServiceProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
