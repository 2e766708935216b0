package profiler

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrymomot/profiler/pkg/config"
	"github.com/dmitrymomot/profiler/pkg/metadata"
	"github.com/dmitrymomot/profiler/pkg/personalize"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "PROFILER_"

// Config holds client settings.
type Config struct {
	Organization    string        `env:"ORGANIZATION,required,notEmpty"`
	BaseURL         string        `env:"BASE_URL,required"`
	Personalization bool          `env:"PERSONALIZATION" envDefault:"true"`
	ContactEmail    string        `env:"CONTACT_EMAIL"`
	OverrideRef     string        `env:"OVERRIDE_REF"`
	TrackPageViews  bool          `env:"TRACK_PAGE_VIEWS" envDefault:"true"`
	TrackSessions   bool          `env:"TRACK_SESSIONS" envDefault:"true"`
	DataPointDelay  time.Duration `env:"DATA_POINT_DELAY" envDefault:"0s"`
	MetadataTag     string        `env:"METADATA_TAG" envDefault:"profiler:interests"`
	MarkerClass     string        `env:"MARKER_CLASS" envDefault:"profiler-personalization"`
	Origin          string        `env:"ORIGIN"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
}

// DefaultConfig returns the settings LoadConfig would produce with only the
// required variables set.
func DefaultConfig(organization, baseURL string) Config {
	return Config{
		Organization:    organization,
		BaseURL:         baseURL,
		Personalization: true,
		TrackPageViews:  true,
		TrackSessions:   true,
		MetadataTag:     metadata.DefaultTag,
		MarkerClass:     personalize.DefaultMarkerClass,
		RequestTimeout:  10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadConfig reads Config from PROFILER_* environment variables and an
// optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.LoadWithPrefix(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings New cannot work without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return ErrMissingOrganization
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	if c.MarkerClass == "" || strings.ContainsFunc(c.MarkerClass, unicode.IsSpace) {
		return fmt.Errorf("%w: marker class must be a single non-empty class name, got %q", ErrInvalidConfig, c.MarkerClass)
	}
	if c.DataPointDelay < 0 {
		return fmt.Errorf("%w: data point delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
