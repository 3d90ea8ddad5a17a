package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug    bool `env:"DEBUG" envDefault:"false"`
	TestMode bool `env:"TEST_MODE" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"APP_ORIGIN" envDefault:"http://localhost:3000"`
		// PublicURL is this backend's externally reachable base, used for
		// gateway callback URLs.
		PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	}

	Postgres struct {
		// Empty or a placeholder "dummy" URL disables the database entirely
		// (local-token sessions only, permissive verify on the GET path).
		URL             string `env:"DATABASE_URL" envDefault:""`
		MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME_SEC" envDefault:"300"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Razorpay struct {
		KeyID       string `env:"RAZORPAY_KEY_ID" envDefault:""`
		KeySecret   string `env:"RAZORPAY_KEY_SECRET" envDefault:""`
		TestLink    string `env:"RAZORPAY_TEST_LINK" envDefault:"https://rzp.io/rzp/9NJNueG"`
		AmountPaise int64  `env:"REQUIRED_AMOUNT_PAISE" envDefault:"20000"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional; in production the environment is set directly
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// DatabaseEnabled reports whether a usable Postgres URL is configured.
// A URL containing "dummy" is how deployments without a database keep the
// variable set without pointing it anywhere real.
func (c *Config) DatabaseEnabled() bool {
	return c.Postgres.URL != "" && !strings.Contains(c.Postgres.URL, "dummy")
}

// GatewayConfigured reports whether Razorpay credentials are present.
// Without both halves of the key pair every lookup is indeterminate.
func (c *Config) GatewayConfigured() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.KeySecret != ""
}
