package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// noDefaultsTag is a struct tag name no field carries; parsing with it as the
// default tag applies only variables that are actually set.
const noDefaultsTag = "-envDefault"

// Load parses environment variables into v using its env struct tags.
//
// When envFiles are given they are loaded into the process environment first
// and a missing file is an error. Without them the .env file in the working
// directory is loaded if present. Variables already set in the environment
// are never overwritten by files.
//
//	type Settings struct {
//		BaseURL string        `env:"LINKME_BASE_URL,required"`
//		Timeout time.Duration `env:"LINKME_TIMEOUT" envDefault:"10s"`
//	}
//
//	var s Settings
//	if err := config.Load(&s); err != nil {
//		// handle error
//	}
func Load[T any](v *T, envFiles ...string) error {
	if v == nil {
		return ErrNilPointer
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return errors.Join(ErrReadingFile, err)
		}
	} else {
		// The default .env file is optional.
		_ = godotenv.Load()
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// LoadFile fills v from a YAML file and then applies environment overrides.
//
// Precedence, lowest first: envDefault tags, the YAML document, variables set
// in the environment. Fields tagged required must be satisfied by the
// environment alone, so prefer Load for those.
func LoadFile[T any](path string, v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	if err := env.ParseWithOptions(v, env.Options{Environment: map[string]string{}}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Join(ErrReadingFile, fmt.Errorf("%s: %w", path, err))
	}

	if err := env.ParseWithOptions(v, env.Options{DefaultValueTagName: noDefaultsTag}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, envFiles ...string) {
	if err := Load(v, envFiles...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
