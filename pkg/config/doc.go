// Package config loads typed configuration from the environment, optional
// .env files and YAML documents.
//
// It wraps github.com/caarlos0/env/v11 for struct-tag parsing,
// github.com/joho/godotenv for .env files, and gopkg.in/yaml.v3 for config
// files. Annotate a struct with env tags (and yaml tags when using LoadFile):
//
//	type Settings struct {
//		BaseURL string        `env:"LINKME_BASE_URL" yaml:"base_url"`
//		AppID   string        `env:"LINKME_APP_ID" yaml:"app_id"`
//		Timeout time.Duration `env:"LINKME_TIMEOUT" yaml:"timeout" envDefault:"10s"`
//	}
//
//	var s Settings
//	if err := config.LoadFile("linkme.yaml", &s); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// Failures wrap one of the sentinel errors so they can be matched with errors.Is:
//
//   - ErrParsingConfig: env vars could not be parsed into the struct.
//   - ErrReadingFile: a .env or YAML file could not be read or decoded.
//   - ErrNilPointer: a nil pointer was passed.
package config
