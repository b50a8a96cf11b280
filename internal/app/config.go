package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/corey/ramdisk/internal/domain/ramdisk"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no --config is given.
const DefaultConfigFile = ".ramdisk.yaml"

// Config holds the generator settings. Zero values are filled by DefaultConfig.
type Config struct {
	Order         string `yaml:"order"`          // native, tree, path
	Escape        string `yaml:"escape"`         // escape, reject, raw
	Word          string `yaml:"word"`           // table cell directive
	ExcludeSuffix string `yaml:"exclude_suffix"` // file names never embedded
	Manifest      string `yaml:"manifest"`       // bbolt path; empty disables build records
	Verbose       bool   `yaml:"verbose"`
}

// DefaultConfig returns the settings that reproduce the plain two-argument run.
func DefaultConfig() Config {
	return Config{
		Order:         string(ramdisk.DefaultOrder),
		Escape:        string(ramdisk.DefaultEscapePolicy),
		Word:          ramdisk.DefaultWordDirective,
		ExcludeSuffix: ramdisk.DefaultExcludeSuffix,
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig.
// An empty path tries DefaultConfigFile and tolerates its absence; an
// explicit path must exist. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerations and required directives.
func (c Config) Validate() error {
	if _, err := ramdisk.ParseOrder(c.Order); err != nil {
		return err
	}
	if _, err := ramdisk.ParseEscapePolicy(c.Escape); err != nil {
		return err
	}
	if c.Word == "" {
		return errors.New("word directive must not be empty")
	}
	if c.ExcludeSuffix == "" {
		return errors.New("exclude_suffix must not be empty")
	}
	return nil
}

// walkOptions translates the config for ramdisk.NewWalker.
func (c Config) walkOptions() ([]ramdisk.WalkOption, error) {
	order, err := ramdisk.ParseOrder(c.Order)
	if err != nil {
		return nil, err
	}
	return []ramdisk.WalkOption{
		ramdisk.WalkWithOrder(order),
		ramdisk.WalkWithExcludeSuffix(c.ExcludeSuffix),
	}, nil
}

// emitOptions translates the config for ramdisk.NewEmitter.
func (c Config) emitOptions() ([]ramdisk.EmitOption, error) {
	policy, err := ramdisk.ParseEscapePolicy(c.Escape)
	if err != nil {
		return nil, err
	}
	return []ramdisk.EmitOption{
		ramdisk.EmitWithWord(c.Word),
		ramdisk.EmitWithEscape(policy),
	}, nil
}
