// Package config reads the fileshare settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultHost is the fileshare endpoint download URLs point at.
const DefaultHost = "ops4-fileshare.prod.schild.net"

type Config struct {
	AdminToken string `env:"FILESHARE_ADMIN_TOKEN,required" validate:"required"`
	UserID     uint64 `env:"FILESHARE_USER_ID,required" validate:"required"`
	Host       string `env:"FILESHARE_HOST" envDefault:"ops4-fileshare.prod.schild.net" validate:"required,hostname_port|hostname_rfc1123"`
	DataDir    string `env:"FILESHARE_DATA_DIR" envDefault:"." validate:"required"`
	DBPath     string `env:"FILESHARE_DB_PATH" envDefault:"fileshare.db" validate:"required"`
	Addr       string `env:"FILESHARE_ADDR" envDefault:":8080" validate:"required"`
	MaxSize    int64  `env:"FILESHARE_MAX_SIZE" envDefault:"67108864" validate:"gt=0"`
}

var validate = validator.New()

// Load reads an optional .env file, parses the environment and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config using its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	return nil
}
