package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	NodeID   int64  `yaml:"node_id"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server config
type WebConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secret   string `yaml:"secret"`
	TokenTTL int64  `yaml:"token_ttl"` // seconds
}

// DBConfig Database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logger config
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// CheckoutConfig pricing and listing settings for purchases
type CheckoutConfig struct {
	TaxRate         string `yaml:"tax_rate"`
	AdminFeeRate    string `yaml:"admin_fee_rate"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
}

// AdminConfig bootstrap administrator account
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Database DBConfig       `yaml:"database"`
	Logger   LogConfig      `yaml:"logger"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Admin    AdminConfig    `yaml:"admin"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetMetricsDir() string {
	return path.Join(c.System.Workdir, "data", "metrics")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir(), c.GetMetricsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create dir %s", dir)
		}
	}
	return nil
}

// Validate reports the first setting that would prevent the server from starting
func (c *AppConfig) Validate() error {
	switch c.Database.Type {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported database type %q", c.Database.Type)
	}
	if strings.TrimSpace(c.Web.Secret) == "" {
		return errors.New("web.secret must not be empty")
	}
	if c.Web.TokenTTL <= 0 {
		return errors.New("web.token_ttl must be positive")
	}
	if c.Checkout.DefaultPageSize <= 0 || c.Checkout.MaxPageSize < c.Checkout.DefaultPageSize {
		return errors.New("checkout page sizes are invalid")
	}
	return nil
}

// DefaultAppConfig returns the built-in defaults, suitable for local development
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "ekuator",
			Location: "Asia/Jakarta",
			Workdir:  "/var/ekuator",
			NodeID:   1,
			Debug:    true,
		},
		Web: WebConfig{
			Host:     "0.0.0.0",
			Port:     8000,
			Secret:   "9b6de5cc-0731-4bf1-xxxx-0f568ac9da37",
			TokenTTL: 7 * 24 * 3600,
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "ekuator.db",
			User:     "postgres",
			Passwd:   "myroot",
			MaxConn:  100,
			IdleConn: 10,
			Debug:    false,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "/var/ekuator/logs/ekuator.log",
		},
		Checkout: CheckoutConfig{
			TaxRate:         "0.10",
			AdminFeeRate:    "0.05",
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Admin: AdminConfig{
			Name:     "administrator",
			Email:    "admin@ekuator.local",
			Password: "ekuator-admin",
		},
	}
}

// LoadConfig reads cfile (when it exists) over the defaults, then applies
// EKUATOR_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", cfile)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
	}

	setEnvValue("EKUATOR_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("EKUATOR_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvInt64Value("EKUATOR_SYSTEM_NODE_ID", &cfg.System.NodeID)
	setEnvBoolValue("EKUATOR_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("EKUATOR_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("EKUATOR_WEB_PORT", &cfg.Web.Port)
	setEnvValue("EKUATOR_WEB_SECRET", &cfg.Web.Secret)
	setEnvInt64Value("EKUATOR_WEB_TOKEN_TTL", &cfg.Web.TokenTTL)

	setEnvValue("EKUATOR_DB_TYPE", &cfg.Database.Type)
	setEnvValue("EKUATOR_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("EKUATOR_DB_PORT", &cfg.Database.Port)
	setEnvValue("EKUATOR_DB_NAME", &cfg.Database.Name)
	setEnvValue("EKUATOR_DB_USER", &cfg.Database.User)
	setEnvValue("EKUATOR_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("EKUATOR_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("EKUATOR_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("EKUATOR_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("EKUATOR_CHECKOUT_TAX_RATE", &cfg.Checkout.TaxRate)
	setEnvValue("EKUATOR_CHECKOUT_ADMIN_FEE_RATE", &cfg.Checkout.AdminFeeRate)

	setEnvValue("EKUATOR_ADMIN_EMAIL", &cfg.Admin.Email)
	setEnvValue("EKUATOR_ADMIN_PASSWORD", &cfg.Admin.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue := os.Getenv(name); evalue != "" {
		if b, err := cast.ToBoolE(evalue); err == nil {
			*val = b
		}
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue := os.Getenv(name); evalue != "" {
		if i, err := cast.ToIntE(evalue); err == nil {
			*val = i
		}
	}
}

func setEnvInt64Value(name string, val *int64) {
	if evalue := os.Getenv(name); evalue != "" {
		if i, err := cast.ToInt64E(evalue); err == nil {
			*val = i
		}
	}
}
