package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"exifpreset/internal/domain"
	appErrors "exifpreset/internal/errors"
)

const (
	CodecNative   = "native"
	CodecExiftool = "exiftool"

	UIAuto  = "auto"
	UITUI   = "tui"
	UIBar   = "bar"
	UIPlain = "plain"
)

// Flag names shared by the command line and Resolve.
const (
	FlagMode       = "mode"
	FlagOut        = "out"
	FlagCollection = "collection"
	FlagFlat       = "flat"
	FlagCodec      = "codec"
	FlagUI         = "ui"
	FlagRecursive  = "recursive"
	FlagDryRun     = "dry-run"
	FlagVerbose    = "verbose"
	FlagWorkers    = "workers"
)

type Config struct {
	Mode       domain.Mode
	OutputDir  string
	Collection string
	Flat       bool
	Codec      string
	UI         string
	Recursive  bool
	DryRun     bool
	Verbose    bool
	Workers    int
}

// File mirrors the YAML config file. Pointers tell unset from false.
type File struct {
	Mode       string `yaml:"mode"`
	OutputDir  string `yaml:"out"`
	Collection string `yaml:"collection"`
	Flat       *bool  `yaml:"flat"`
	Codec      string `yaml:"codec"`
	UI         string `yaml:"ui"`
	Recursive  *bool  `yaml:"recursive"`
	Verbose    *bool  `yaml:"verbose"`
	Workers    int    `yaml:"workers"`
}

func Defaults() Config {
	return Config{
		OutputDir:  "Gallery",
		Collection: "Pictures/ExifTool",
		Codec:      CodecNative,
		UI:         UIAuto,
	}
}

// DefaultPath returns the config file to read when none was given on the
// command line. An empty result means no file.
func DefaultPath() string {
	return envOrEmpty("EXIFPRESET_CONFIG")
}

func LoadFile(path string) (File, error) {
	var file File
	data, err := os.ReadFile(path)
	if err != nil {
		return file, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, errors.Wrapf(err, "parse config %s", path)
	}
	return file, nil
}

// Resolve layers defaults, the config file, EXIFPRESET_* variables and the
// flags the user actually set, in that order, then validates the result.
func Resolve(path string, flags Config, changed func(name string) bool) (Config, error) {
	cfg := Defaults()

	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return Config{}, appErrors.Wrap(appErrors.InvalidConfig, "config", path, err)
		}
		cfg.applyFile(file)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, appErrors.Wrap(appErrors.InvalidConfig, "env", "", err)
	}
	cfg.applyFlags(flags, changed)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f File) {
	if f.Mode != "" {
		c.Mode = domain.Mode(f.Mode)
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.Collection != "" {
		c.Collection = f.Collection
	}
	if f.Flat != nil {
		c.Flat = *f.Flat
	}
	if f.Codec != "" {
		c.Codec = f.Codec
	}
	if f.UI != "" {
		c.UI = f.UI
	}
	if f.Recursive != nil {
		c.Recursive = *f.Recursive
	}
	if f.Verbose != nil {
		c.Verbose = *f.Verbose
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
}

func (c *Config) applyEnv() error {
	if val := envOrEmpty("EXIFPRESET_MODE"); val != "" {
		c.Mode = domain.Mode(val)
	}
	if val := envOrEmpty("EXIFPRESET_OUT"); val != "" {
		c.OutputDir = val
	}
	if val := envOrEmpty("EXIFPRESET_COLLECTION"); val != "" {
		c.Collection = val
	}
	if val := envOrEmpty("EXIFPRESET_CODEC"); val != "" {
		c.Codec = val
	}
	if val := envOrEmpty("EXIFPRESET_UI"); val != "" {
		c.UI = val
	}
	if envTruthy("EXIFPRESET_FLAT") {
		c.Flat = true
	}
	if envTruthy("EXIFPRESET_RECURSIVE") {
		c.Recursive = true
	}
	if envTruthy("EXIFPRESET_VERBOSE") {
		c.Verbose = true
	}
	if val := envOrEmpty("EXIFPRESET_WORKERS"); val != "" {
		workers, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("EXIFPRESET_WORKERS must be a number, got %q", val)
		}
		c.Workers = workers
	}
	return nil
}

func (c *Config) applyFlags(flags Config, changed func(string) bool) {
	if changed == nil {
		return
	}
	if changed(FlagMode) {
		c.Mode = flags.Mode
	}
	if changed(FlagOut) {
		c.OutputDir = flags.OutputDir
	}
	if changed(FlagCollection) {
		c.Collection = flags.Collection
	}
	if changed(FlagFlat) {
		c.Flat = flags.Flat
	}
	if changed(FlagCodec) {
		c.Codec = flags.Codec
	}
	if changed(FlagUI) {
		c.UI = flags.UI
	}
	if changed(FlagRecursive) {
		c.Recursive = flags.Recursive
	}
	if changed(FlagDryRun) {
		c.DryRun = flags.DryRun
	}
	if changed(FlagVerbose) {
		c.Verbose = flags.Verbose
	}
	if changed(FlagWorkers) {
		c.Workers = flags.Workers
	}
}

// Validate normalises the mode and checks the enumerated settings. An empty
// mode is allowed here; commands that rewrite photos require one.
func (c *Config) Validate() error {
	if c.Mode != "" {
		mode, err := domain.ParseMode(string(c.Mode))
		if err != nil {
			return appErrors.Wrap(appErrors.UnknownPreset, "config", "", err)
		}
		c.Mode = mode
	}

	c.Codec = strings.ToLower(strings.TrimSpace(c.Codec))
	if c.Codec != CodecNative && c.Codec != CodecExiftool {
		return invalid("codec must be %q or %q, got %q", CodecNative, CodecExiftool, c.Codec)
	}

	c.UI = strings.ToLower(strings.TrimSpace(c.UI))
	switch c.UI {
	case UIAuto, UITUI, UIBar, UIPlain:
	default:
		return invalid("ui must be one of auto, tui, bar, plain, got %q", c.UI)
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		return invalid("output directory is required")
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return appErrors.Wrap(appErrors.InvalidConfig, "config", "", fmt.Errorf(format, args...))
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
