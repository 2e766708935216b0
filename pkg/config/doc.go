// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for optional .env files and
// github.com/caarlos0/env/v11 for struct tag parsing. Each configuration type
// (and prefix) is parsed once per process and cached; ResetCache clears the
// cache in tests.
//
// # Usage
//
//	type Config struct {
//	    Organization string        `env:"ORGANIZATION,required"`
//	    Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.LoadWithPrefix("PROFILER_", &cfg); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Parsing failures wrap ErrParsingConfig together with the underlying env error
// using errors.Join, so both errors.Is(err, config.ErrParsingConfig) and the
// library's own error types keep working.
package config
