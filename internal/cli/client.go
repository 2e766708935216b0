package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/dmitrymomot/profiler"
	"github.com/dmitrymomot/profiler/pkg/config"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/redis"
	"github.com/dmitrymomot/profiler/pkg/store"
)

// handle bundles a client with the resources it holds.
type handle struct {
	client  *profiler.Client
	closers []io.Closer
}

// Close shuts the client down, then releases the store connections.
func (s *handle) Close(ctx context.Context) error {
	errs := []error{s.client.Close(ctx)}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func loadConfig(opts *RootOptions) (profiler.Config, error) {
	var cfg profiler.Config
	if opts.Organization != "" && opts.BaseURL != "" {
		cfg = profiler.DefaultConfig(opts.Organization, opts.BaseURL)
	} else {
		loaded, err := profiler.LoadConfig()
		if err != nil {
			return profiler.Config{}, fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
		if opts.Organization != "" {
			cfg.Organization = opts.Organization
		}
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
	}
	if opts.Origin != "" {
		cfg.Origin = opts.Origin
	}
	return cfg, nil
}

// originOf picks the identity scope: explicit origin, else the page host.
func originOf(cfg profiler.Config, pageURL string) string {
	if cfg.Origin != "" {
		return cfg.Origin
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return "default"
}

func openStore(ctx context.Context, opts *RootOptions, origin string) (store.Store, []io.Closer, error) {
	switch opts.Store {
	case "redis":
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, nil, err
		}
		if rcfg.Origin == "" {
			rcfg.Origin = origin
		}
		s, client, err := redis.OpenStore(ctx, rcfg)
		if err != nil {
			return nil, nil, err
		}
		return s, []io.Closer{client}, nil
	case "sqlite":
		s, err := store.OpenSQLite(ctx, opts.SQLitePath, origin)
		if err != nil {
			return nil, nil, err
		}
		return s, []io.Closer{s}, nil
	default:
		return store.NewMemoryStore(), nil, nil
	}
}

func openClient(ctx context.Context, opts *RootOptions, cfg profiler.Config, env profiler.Environment, pageURL string, stderr io.Writer) (*handle, error) {
	s, closers, err := openStore(ctx, opts, originOf(cfg, pageURL))
	if err != nil {
		return nil, fmt.Errorf("opening identity store: %w", err)
	}

	log := logger.New(
		logger.WithLevelName(opts.LogLevel),
		logger.WithTextFormatter(),
		logger.WithOutput(stderr),
		logger.WithVisitorContext(),
	)

	client, err := profiler.New(ctx, cfg, env, profiler.WithStore(s), profiler.WithLogger(log))
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	log.Debug("client ready", logger.VisitorRef(client.Ref()), slog.String("store", opts.Store))
	return &handle{client: client, closers: closers}, nil
}
