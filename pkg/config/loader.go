package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache stores one parsed copy per (prefix, type) pair.
type cache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	global = &cache{values: make(map[string]any)}

	defaultEnvLoaded sync.Once
)

// LoadEnv loads variables from the given .env files into the process
// environment. Already set variables are not overridden. Without paths the
// default .env in the working directory is used.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses environment variables into v using `env` struct tags. Each
// configuration type is parsed once per process; later calls return the cached
// copy.
//
//	type ClientConfig struct {
//		Organization string `env:"PROFILER_ORGANIZATION,required"`
//		Timeout      time.Duration `env:"PROFILER_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg ClientConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle
//	}
func Load[T any](v *T) error {
	return LoadWithPrefix("", v)
}

// LoadWithPrefix is Load with every tag name prefixed, so one struct can be
// reused for several named instances (for example two tracking clients).
func LoadWithPrefix[T any](prefix string, v *T) error {
	defaultEnvLoaded.Do(func() {
		// The default .env is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := prefix + "|" + typeName[T]()

	global.mu.Lock()
	defer global.mu.Unlock()

	if cached, ok := global.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{Prefix: prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	global.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache drops every cached configuration. Intended for tests.
func ResetCache() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.values = make(map[string]any)
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.String()
}
