package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver    string
	DataDir   string
	FileLocks bool
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type SecurityConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
	AdminIDs  []int64

	// AdminBootstrapSecret lets a configured admin id register as active.
	// Empty means admins start pending like everyone else.
	AdminBootstrapSecret string
}

func (c SecurityConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type AttendanceConfig struct {
	Timezone         string
	MinutesPerSample int
}

// LoadLocation resolves Timezone. Empty or "local" means the process zone.
func (c AttendanceConfig) LoadLocation() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("attendance.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Location is LoadLocation for an already validated config.
func (c AttendanceConfig) Location() *time.Location {
	loc, err := c.LoadLocation()
	if err != nil {
		return time.Local
	}
	return loc
}

type JobsConfig struct {
	Stream        string
	ReminderSpec  string
	ReconcileSpec string
	BackupSpec    string
}

type WorkerConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Logging          LoggingConfig
	Storage          StorageConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	ObjectStore      ObjectStoreConfig
	Security         SecurityConfig
	Attendance       AttendanceConfig
	Jobs             JobsConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ATTENDANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Storage.Driver {
	case StorageDriverFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.datadir is required for the file driver")
		}
	case StorageDriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := c.Attendance.LoadLocation(); err != nil {
		return err
	}
	if c.Attendance.MinutesPerSample <= 0 {
		return fmt.Errorf("attendance.minutespersample must be positive")
	}
	if c.Security.JWTSecret == "" && c.Environment == "production" {
		return fmt.Errorf("security.jwtsecret is required in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxsizemb", 50)
	v.SetDefault("logging.maxbackups", 5)
	v.SetDefault("logging.maxagedays", 28)

	v.SetDefault("storage.driver", StorageDriverFile)
	v.SetDefault("storage.datadir", "data")
	v.SetDefault("storage.filelocks", true)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	// An empty address disables the task queue.
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("objectstore.endpoint", "")
	v.SetDefault("objectstore.accesskey", "")
	v.SetDefault("objectstore.secretkey", "")
	v.SetDefault("objectstore.bucket", "attendance-backups")
	v.SetDefault("objectstore.usessl", false)
	v.SetDefault("objectstore.region", "us-east-1")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtttl", "24h")
	v.SetDefault("security.adminids", []int64{})
	v.SetDefault("security.adminbootstrapsecret", "")

	v.SetDefault("attendance.timezone", "Local")
	v.SetDefault("attendance.minutespersample", 1)

	v.SetDefault("jobs.stream", "attendance:tasks")
	v.SetDefault("jobs.reminderspec", "0 30 17 * * 1-5")
	v.SetDefault("jobs.reconcilespec", "0 5 0 * * *")
	v.SetDefault("jobs.backupspec", "0 30 0 * * *")

	v.SetDefault("worker.group", "attendance-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")

	v.SetDefault("allowcorsorigins", []string{})
}
