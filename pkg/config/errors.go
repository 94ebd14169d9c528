package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")

	// ErrReadingFile is returned when a .env or YAML file cannot be read or decoded.
	ErrReadingFile = errors.New("config: failed to read config file")

	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("config: nil pointer provided to config loader")
)
