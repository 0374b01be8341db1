// Package config loads the renderer configuration from a YAML file and the
// environment.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/logging"
)

const (
	DefaultOutputDir    = "dist"
	DefaultPublicDir    = "public"
	DefaultSourceDir    = "react-ssr-src"
	DefaultScriptBase   = "/"
	DefaultBuildTimeout = 60 * time.Second
	DefaultAddr         = ":8080"
	DefaultCacheSize    = 1024
)

type Config struct {
	Environment core.Environment `yaml:"environment"`
	WorkDir     string           `yaml:"workdir"`
	OutputDir   string           `yaml:"output_dir"`
	PublicDir   string           `yaml:"public_dir"`
	// SourceDir is where the synthetic entry and page modules live inside
	// the build overlay, relative to WorkDir.
	SourceDir         string        `yaml:"source_dir"`
	BuildTimeout      Duration      `yaml:"build_timeout"`
	LegacyScriptQuery bool          `yaml:"legacy_script_query"`
	// ScriptBase prefixes the bundle file name in the hydration script src.
	// Defaults to "/" so pages at any depth load bundles from the root, or
	// to "" (a bare relative name) with legacy_script_query.
	ScriptBase        string        `yaml:"script_base"`
	CacheSize         int           `yaml:"cache_size"`
	LogLevel          logging.Level `yaml:"log_level"`
	Storage           Storage       `yaml:"storage"`
	Server            Server        `yaml:"server"`
	Pages             []Page        `yaml:"pages"`
}

type Storage struct {
	AmazonS3 *AmazonS3 `yaml:"s3,omitempty"`
}

type AmazonS3 struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
	URL    string `yaml:"url,omitempty"` // custom endpoint, also used by tests
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Page maps a route pattern to a component file rendered with fixed props.
type Page struct {
	Path  string         `yaml:"path"`
	File  string         `yaml:"file"`
	Props map[string]any `yaml:"props,omitempty"`
}

type Duration time.Duration

func (d *Duration) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	val, err := time.ParseDuration(s)
	*d = Duration(val)
	return err
}

func (d Duration) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(d.String())
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func ParseFile(filename string) (*Config, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	cfg, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	// A relative workdir is relative to the file that declares it.
	if !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(filepath.Dir(filename), cfg.WorkDir)
	}
	return cfg, nil
}

func Parse(bs []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Load reads filename when it is not empty, then applies the environment
// and defaults and validates the result.
func Load(filename string) (*Config, error) {
	cfg := &Config{}
	if filename != "" {
		var err error
		if cfg, err = ParseFile(filename); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the environment from HYDRATE_ENV, falling back to
// NODE_ENV=production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("HYDRATE_ENV"); ok && v != "" {
		env, err := core.ParseEnvironment(v)
		if err != nil {
			return fmt.Errorf("HYDRATE_ENV: %w", err)
		}
		c.Environment = env
	} else if v, ok := lookup("NODE_ENV"); ok && v == "production" {
		c.Environment = core.EnvProduction
	}

	if v, ok := lookup("HYDRATE_OUTPUT_DIR"); ok && v != "" {
		c.OutputDir = v
	}
	if v, ok := lookup("HYDRATE_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = logging.Level(v)
	}
	return nil
}

func (c *Config) SetDefaults() error {
	env, err := core.ParseEnvironment(string(c.Environment))
	if err != nil {
		return err
	}
	c.Environment = env

	if c.WorkDir == "" {
		if c.WorkDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	if c.WorkDir, err = filepath.Abs(c.WorkDir); err != nil {
		return err
	}

	c.OutputDir = c.resolve(cmp.Or(c.OutputDir, DefaultOutputDir))
	c.PublicDir = c.resolve(cmp.Or(c.PublicDir, DefaultPublicDir))
	c.SourceDir = cmp.Or(c.SourceDir, DefaultSourceDir)
	if c.ScriptBase == "" && !c.LegacyScriptQuery {
		c.ScriptBase = DefaultScriptBase
	}
	if c.ScriptBase != "" && !strings.HasSuffix(c.ScriptBase, "/") {
		c.ScriptBase += "/"
	}
	c.BuildTimeout = cmp.Or(c.BuildTimeout, Duration(DefaultBuildTimeout))
	c.CacheSize = cmp.Or(c.CacheSize, DefaultCacheSize)
	c.LogLevel = cmp.Or(c.LogLevel, logging.LevelInfo)
	c.Server.Addr = cmp.Or(c.Server.Addr, DefaultAddr)
	return nil
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.WorkDir, dir)
}

func (c *Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if filepath.IsAbs(c.SourceDir) {
		errs = append(errs, fmt.Errorf("source_dir %q must be relative to workdir", c.SourceDir))
	}
	if c.BuildTimeout < 0 {
		errs = append(errs, fmt.Errorf("build_timeout must not be negative, got %s", c.BuildTimeout))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if s3 := c.Storage.AmazonS3; s3 != nil && s3.Bucket == "" {
		errs = append(errs, errors.New("storage.s3.bucket is required"))
	}

	seen := make(map[string]bool, len(c.Pages))
	for i, p := range c.Pages {
		if err := core.ValidateRoutePath(p.Path); err != nil {
			errs = append(errs, fmt.Errorf("pages[%d]: %w", i, err))
		}
		if p.File == "" {
			errs = append(errs, fmt.Errorf("pages[%d]: file is required", i))
		}
		path := core.NormalizePath(p.Path)
		if path == "/metrics" || strings.HasPrefix(path, "/reload/") {
			errs = append(errs, fmt.Errorf("pages[%d]: path %s is reserved", i, path))
		}
		if seen[path] {
			errs = append(errs, fmt.Errorf("pages[%d]: duplicate path %s", i, path))
		}
		seen[path] = true
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment.IsProduction()
}
