package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/config"
	"github.com/agunghasbi/be-ekuator/internal/auth"
	"github.com/agunghasbi/be-ekuator/internal/catalog"
	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/pricing"
	"github.com/agunghasbi/be-ekuator/internal/purchase"
	"github.com/agunghasbi/be-ekuator/internal/repository"
	"github.com/agunghasbi/be-ekuator/pkg/common"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	metrics   *metrics.Store

	authSvc     *auth.Service
	catalogSvc  *catalog.Service
	purchaseSvc *purchase.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Auth() *auth.Service {
	return a.authSvc
}

func (a *Application) Catalog() *catalog.Service {
	return a.catalogSvc
}

func (a *Application) Purchases() *purchase.Service {
	return a.purchaseSvc
}

func (a *Application) Metrics() *metrics.Store {
	return a.metrics
}

func initLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if !cfg.Logger.FileEnable {
		return zapConfig.Build(zap.AddCaller())
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.Logger.Filename,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   false,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(lumberJackLogger),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// Init sets up logging, metrics and the database, seeds defaults and starts
// background jobs.
func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	zap.ReplaceGlobals(logger)

	common.SetNodeID(cfg.System.NodeID)

	if err := metrics.InitMetrics(cfg.GetMetricsDir()); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}
	a.metrics = metrics.Default()

	a.gormDB, err = getDatabase(cfg.Database, cfg.System.Workdir)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	if err := a.Bootstrap(); err != nil {
		return err
	}
	a.checkAdmin()
	a.checkProducts()

	a.initJob()
	return nil
}

// Bootstrap wires repositories and services over the current database
// handle. Init calls it; tests call it after OverrideDB.
func (a *Application) Bootstrap() error {
	cfg := a.appConfig
	if a.gormDB == nil {
		return errors.New("database is not initialized")
	}
	if a.metrics == nil {
		store, err := metrics.NewStore("")
		if err != nil {
			return err
		}
		a.metrics = store
	}

	calc, err := pricing.NewCalculator(cfg.Checkout.TaxRate, cfg.Checkout.AdminFeeRate)
	if err != nil {
		return err
	}

	a.authSvc = auth.NewService(
		repository.NewGormUserRepository(a.gormDB),
		repository.NewGormTokenRepository(a.gormDB),
		cfg.Web.Secret,
		time.Duration(cfg.Web.TokenTTL)*time.Second,
	)
	a.catalogSvc = catalog.NewService(
		repository.NewGormCatalogRepository(a.gormDB),
		cfg.Checkout.DefaultPageSize,
		cfg.Checkout.MaxPageSize,
	)
	a.purchaseSvc = purchase.NewService(
		repository.NewGormUnitOfWork(a.gormDB),
		repository.NewGormLedgerRepository(a.gormDB),
		calc,
		purchase.WithRecorder(a.metrics),
		purchase.WithPageSizes(cfg.Checkout.DefaultPageSize, cfg.Checkout.MaxPageSize),
	)
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// InitDb drops and recreates every table, then seeds the defaults again.
func (a *Application) InitDb() {
	a.DropAll()
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return
	}
	a.checkAdmin()
	a.checkProducts()
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.metrics == metrics.Default() {
		_ = metrics.Close()
	} else if a.metrics != nil {
		_ = a.metrics.Close()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
