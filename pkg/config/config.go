// Package config loads named dispatch profiles and metrics settings from
// YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/ratelimit/bucket"
	"github.com/vnykmshr/rxflow/pkg/reactive/dispatch"
)

// Format identifies a configuration file syntax.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// File is the top-level configuration document.
type File struct {
	Metrics  Metrics            `yaml:"metrics" toml:"metrics"`
	Profiles map[string]Profile `yaml:"profiles" toml:"profiles"`
}

// Metrics configures the Prometheus registry shared by coordinators.
type Metrics struct {
	Enabled   bool              `yaml:"enabled" toml:"enabled"`
	Namespace string            `yaml:"namespace" toml:"namespace"`
	Labels    map[string]string `yaml:"labels" toml:"labels"`
}

// Profile is a named set of dispatch settings.
type Profile struct {
	Strategy          dispatch.Strategy `yaml:"strategy" toml:"strategy"`
	MaxConcurrency    int               `yaml:"max_concurrency" toml:"max_concurrency"`
	CancelOnCompleted bool              `yaml:"cancel_on_completed" toml:"cancel_on_completed"`

	// Rate, when positive, paces units to this many per second through a
	// token bucket holding Burst tokens. Burst defaults to 1.
	Rate  float64 `yaml:"rate" toml:"rate"`
	Burst int     `yaml:"burst" toml:"burst"`
}

// Load reads the file at path, choosing the syntax from its extension
// (.yaml, .yml or .toml).
func Load(path string) (*File, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rxerrors.NewOperationError("config", "Load", err).WithContext("path=" + path)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the given format and validates every profile.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, rxerrors.NewOperationError("config", "Parse", err).WithContext("format=yaml")
		}
	case TOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, rxerrors.NewOperationError("config", "Parse", err).WithContext("format=toml")
		}
	default:
		return nil, rxerrors.NewValidationError("config", "format", string(format), "unsupported format").
			WithHint("use yaml or toml")
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every profile.
func (f *File) Validate() error {
	for _, name := range f.ProfileNames() {
		p := f.Profiles[name]
		if err := validation.ValidateNonNegative("config", "profiles."+name+".max_concurrency", p.MaxConcurrency); err != nil {
			return err
		}
		if err := validation.ValidateNonNegative("config", "profiles."+name+".burst", p.Burst); err != nil {
			return err
		}
		if p.Rate < 0 {
			return rxerrors.NewValidationError("config", "profiles."+name+".rate", p.Rate, "cannot be negative").
				WithHint("omit rate or use 0 for no pacing")
		}
	}
	return nil
}

// ProfileNames returns the profile names in sorted order.
func (f *File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch returns a dispatch.Config for the named profile, built on
// dispatch.DefaultConfig with the profile name as its Name. A profile with a
// rate gets a fresh, full bucket.Bucket as its Limiter.
func (f *File) Dispatch(name string) (dispatch.Config, error) {
	p, ok := f.Profiles[name]
	if !ok {
		return dispatch.Config{}, rxerrors.NewValidationError("config", "profile", name, "not defined").
			WithHint("defined profiles: " + strings.Join(f.ProfileNames(), ", "))
	}
	cfg := p.Apply(dispatch.DefaultConfig())
	cfg.Name = name

	if p.Rate > 0 {
		limiter, err := bucket.NewWithConfig(bucket.Config{
			Rate:          bucket.Limit(p.Rate),
			Burst:         max(p.Burst, 1),
			InitialTokens: -1,
			Name:          name,
		})
		if err != nil {
			return dispatch.Config{}, err
		}
		cfg.Limiter = limiter
	}
	return cfg, nil
}

// MetricsConfig returns the metrics.Config described by the file, registering
// with reg.
func (f *File) MetricsConfig(reg prometheus.Registerer) metrics.Config {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = f.Metrics.Enabled
	cfg.Registry = reg
	if f.Metrics.Namespace != "" {
		cfg.Namespace = f.Metrics.Namespace
	}
	if len(f.Metrics.Labels) > 0 {
		cfg.Labels = prometheus.Labels(f.Metrics.Labels)
	}
	return cfg
}

// Apply copies the profile's settings onto cfg.
func (p Profile) Apply(cfg dispatch.Config) dispatch.Config {
	cfg.Strategy = p.Strategy
	cfg.MaxConcurrency = p.MaxConcurrency
	cfg.CancelOnCompleted = p.CancelOnCompleted
	return cfg
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", rxerrors.NewValidationError("config", "path", path, "unsupported file extension").
			WithHint("use .yaml, .yml or .toml")
	}
}
