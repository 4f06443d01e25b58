// Package config loads leadsheet settings from YAML.
//
// A file is decoded strictly (unknown keys are errors), checked against the
// embedded CUE schema, then overlaid on Default.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// MaxBars is the hard upper bound on a leadsheet size.
const MaxBars = 1024

// ErrInvalidConfig wraps every decoding and validation failure.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.cue
var schemaSource string

// Config holds the resolved settings.
type Config struct {
	MaxSize              int
	DefaultSize          int
	DefaultSection       string
	DefaultTimeSignature music.TimeSignature
	BeatEpsilon          music.Beat
	ReservedNames        []string
	LogLevel             slog.Level
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxSize:              MaxBars,
		DefaultSize:          8,
		DefaultSection:       "A",
		DefaultTimeSignature: music.FourFour,
		BeatEpsilon:          music.NewBeat(1, 100),
		ReservedNames:        []string{"END"},
		LogLevel:             slog.LevelInfo,
	}
}

// file is the on-disk form. Pointers distinguish absent keys from zero values.
type file struct {
	MaxSize              *int     `yaml:"max_size,omitempty" json:"max_size,omitempty"`
	DefaultSize          *int     `yaml:"default_size,omitempty" json:"default_size,omitempty"`
	DefaultSection       *string  `yaml:"default_section,omitempty" json:"default_section,omitempty"`
	DefaultTimeSignature *string  `yaml:"default_time_signature,omitempty" json:"default_time_signature,omitempty"`
	BeatEpsilon          *string  `yaml:"beat_epsilon,omitempty" json:"beat_epsilon,omitempty"`
	ReservedNames        []string `yaml:"reserved_names,omitempty" json:"reserved_names,omitempty"`
	LogLevel             *string  `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML settings. An empty document yields Default.
func Parse(data []byte) (Config, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validateSchema(f); err != nil {
		return Config{}, err
	}
	return f.resolve()
}

func validateSchema(f file) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	v := schema.Unify(ctx.Encode(f))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}

func (f file) resolve() (Config, error) {
	cfg := Default()
	if f.MaxSize != nil {
		cfg.MaxSize = *f.MaxSize
	}
	if f.DefaultSize != nil {
		cfg.DefaultSize = *f.DefaultSize
	}
	if f.DefaultSection != nil {
		cfg.DefaultSection = *f.DefaultSection
	}
	if f.DefaultTimeSignature != nil {
		ts, err := music.ParseTimeSignature(*f.DefaultTimeSignature)
		if err != nil {
			return Config{}, fmt.Errorf("%w: default_time_signature: %v", ErrInvalidConfig, err)
		}
		cfg.DefaultTimeSignature = ts
	}
	if f.BeatEpsilon != nil {
		eps, err := music.ParseBeat(*f.BeatEpsilon)
		if err != nil {
			return Config{}, fmt.Errorf("%w: beat_epsilon: %v", ErrInvalidConfig, err)
		}
		cfg.BeatEpsilon = eps
	}
	if f.ReservedNames != nil {
		cfg.ReservedNames = slices.Clone(f.ReservedNames)
	}
	if f.LogLevel != nil {
		if err := cfg.LogLevel.UnmarshalText([]byte(*f.LogLevel)); err != nil {
			return Config{}, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the constraints that span several settings.
func (c Config) Validate() error {
	switch {
	case c.MaxSize < 1 || c.MaxSize > MaxBars:
		return fmt.Errorf("%w: max_size %d outside [1, %d]", ErrInvalidConfig, c.MaxSize, MaxBars)
	case c.DefaultSize < 1 || c.DefaultSize > c.MaxSize:
		return fmt.Errorf("%w: default_size %d outside [1, %d]", ErrInvalidConfig, c.DefaultSize, c.MaxSize)
	case strings.TrimSpace(c.DefaultSection) == "":
		return fmt.Errorf("%w: default_section is blank", ErrInvalidConfig)
	case !c.DefaultTimeSignature.Valid():
		return fmt.Errorf("%w: default_time_signature %s", ErrInvalidConfig, c.DefaultTimeSignature)
	case c.BeatEpsilon.Sign() <= 0 || !c.BeatEpsilon.Less(music.Beats(1)):
		return fmt.Errorf("%w: beat_epsilon %s outside (0, 1)", ErrInvalidConfig, c.BeatEpsilon)
	}
	for _, r := range c.ReservedNames {
		if FoldName(r) == FoldName(c.DefaultSection) {
			return fmt.Errorf("%w: default_section %q is reserved", ErrInvalidConfig, c.DefaultSection)
		}
	}
	return nil
}

// YAML renders c in the file format accepted by Parse.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.toFile())
}

// JSON renders c with the same keys as the YAML form.
func (c Config) JSON() ([]byte, error) {
	return json.Marshal(c.toFile())
}

func (c Config) toFile() file {
	ts, eps, level := c.DefaultTimeSignature.String(), c.BeatEpsilon.String(), strings.ToLower(c.LogLevel.String())
	return file{
		MaxSize:              &c.MaxSize,
		DefaultSize:          &c.DefaultSize,
		DefaultSection:       &c.DefaultSection,
		DefaultTimeSignature: &ts,
		BeatEpsilon:          &eps,
		ReservedNames:        c.ReservedNames,
		LogLevel:             &level,
	}
}
