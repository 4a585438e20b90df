package auth_service_config

import (
	"time"

	"github.com/teampulse/auth-service/internal/obs"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
	rd "github.com/teampulse/auth-service/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) *obs.LogConfig {
	return &obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "teampulse/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type Auth struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type Lockout struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	AttemptWindow time.Duration `mapstructure:"attempt_window"`
	LockoutTTL    time.Duration `mapstructure:"lockout_ttl"`
	BlacklistTTL  time.Duration `mapstructure:"blacklist_ttl"`
}

type Config struct {
	App     App       `mapstructure:"app"`
	Server  Server    `mapstructure:"server"`
	DB      pg.Config `mapstructure:"db"`
	Redis   rd.Config `mapstructure:"redis"`
	OTEL    OTEL      `mapstructure:"otel"`
	Log     Log       `mapstructure:"log"`
	Auth    Auth      `mapstructure:"auth"`
	Lockout Lockout   `mapstructure:"lockout"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
