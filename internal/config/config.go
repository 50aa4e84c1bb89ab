package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"flip-pooling/internal/logger"
	"flip-pooling/internal/processing/pooling"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	EnvPrefix  = "FLIP"
	DefaultPPD = 67.0

	keyConfig        = "config"
	keyReference     = "reference"
	keyTest          = "test"
	keyErrorMap      = "error-map"
	keyReferenceName = "reference-name"
	keyTestName      = "test-name"
	keyOutput        = "output"
	keyBasename      = "basename"
	keyPPD           = "ppd"
	keyWidth         = "width"
	keyHeight        = "height"
	keyBuckets       = "buckets"
	keyWorkers       = "workers"
	keyVerbose       = "verbose"
	keyLogScale      = "log"
	keyJSON          = "json"
	keyStrict        = "strict"
	keyLogLevel      = "log-level"
)

type Config struct {
	Reference     string
	Tests         *UniqueList[string]
	ErrorMaps     *UniqueList[string]
	ReferenceName string
	TestName      string
	Output        string
	Basename      string
	PPD           float64
	Width         int
	Height        int
	Buckets       int
	Workers       int
	Verbose       bool
	LogScale      bool
	JSON          bool
	Strict        bool
	LogLevel      string
}

// Job is one reference/test comparison to pool and report.
type Job struct {
	Reference     string
	Test          string
	ErrorMap      string
	ReferenceName string
	TestName      string
	BasePath      string
}

// BindFlags registers every option on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(keyConfig, "", "optional config file (yaml, toml or json)")
	fs.StringP(keyReference, "r", "", "reference image")
	fs.StringSliceP(keyTest, "t", nil, "test image(s), comma separated")
	fs.StringSliceP(keyErrorMap, "e", nil, "precomputed per-pixel error map(s), comma separated")
	fs.String(keyReferenceName, "", "reference name shown in reports")
	fs.String(keyTestName, "", "test name shown in reports")
	fs.StringP(keyOutput, "d", ".", "output directory")
	fs.StringP(keyBasename, "b", "", "output base name, only with a single comparison")
	fs.Float64(keyPPD, DefaultPPD, "pixels per degree, used for annotation")
	fs.Int(keyWidth, 0, "image width for normalization, 0 takes it from the input")
	fs.Int(keyHeight, 0, "image height for normalization, 0 takes it from the input")
	fs.Int(keyBuckets, pooling.DefaultBuckets, "histogram bucket count")
	fs.Int(keyWorkers, 0, "accumulation workers, 0 uses GOMAXPROCS")
	fs.BoolP(keyVerbose, "v", false, "print a verbose summary")
	fs.Bool(keyLogScale, false, "log10 scale in the histogram script")
	fs.Bool(keyJSON, false, "also write a JSON report")
	fs.Bool(keyStrict, false, "fail on undefined statistics instead of reporting NaN")
	fs.String(keyLogLevel, "info", "log level: debug, info, warn, error, off")
}

// Load resolves flags, FLIP_* environment variables and the optional config
// file, in that order of precedence, and validates the result.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Reference:     v.GetString(keyReference),
		Tests:         NewUniqueList(splitValues(v.GetStringSlice(keyTest))...),
		ErrorMaps:     NewUniqueList(splitValues(v.GetStringSlice(keyErrorMap))...),
		ReferenceName: v.GetString(keyReferenceName),
		TestName:      v.GetString(keyTestName),
		Output:        v.GetString(keyOutput),
		Basename:      v.GetString(keyBasename),
		PPD:           v.GetFloat64(keyPPD),
		Width:         v.GetInt(keyWidth),
		Height:        v.GetInt(keyHeight),
		Buckets:       v.GetInt(keyBuckets),
		Workers:       v.GetInt(keyWorkers),
		Verbose:       v.GetBool(keyVerbose),
		LogScale:      v.GetBool(keyLogScale),
		JSON:          v.GetBool(keyJSON),
		Strict:        v.GetBool(keyStrict),
		LogLevel:      v.GetString(keyLogLevel),
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Output == "" {
		cfg.Output = "."
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitValues flattens comma separated entries, dropping empty ones.
func splitValues(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch {
	case c.ErrorMaps.Len() == 0 && c.Reference == "":
		return fmt.Errorf("%w: a reference image or an error map is required", ErrInvalidConfig)
	case c.ErrorMaps.Len() == 0 && c.Tests.Len() == 0:
		return fmt.Errorf("%w: at least one test image is required", ErrInvalidConfig)
	case c.ErrorMaps.Len() > 0 && c.Tests.Len() > 0:
		return fmt.Errorf("%w: test images and error maps are mutually exclusive", ErrInvalidConfig)
	case c.Buckets < 1:
		return fmt.Errorf("%w: buckets must be positive, got %d", ErrInvalidConfig, c.Buckets)
	case c.PPD <= 0:
		return fmt.Errorf("%w: ppd must be positive, got %g", ErrInvalidConfig, c.PPD)
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Basename != "" && len(c.Jobs()) > 1:
		return fmt.Errorf("%w: basename requires a single comparison", ErrInvalidConfig)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Jobs expands the configuration into one comparison per test image or error
// map, in the order given.
func (c *Config) Jobs() []Job {
	var jobs []Job

	for _, test := range c.Tests.All() {
		jobs = append(jobs, c.newJob(Job{Reference: c.Reference, Test: test}))
	}
	for _, errorMap := range c.ErrorMaps.All() {
		jobs = append(jobs, c.newJob(Job{ErrorMap: errorMap}))
	}

	if c.Basename != "" && len(jobs) == 1 {
		jobs[0].BasePath = filepath.Join(c.Output, c.Basename)
	}
	return jobs
}

func (c *Config) newJob(j Job) Job {
	j.ReferenceName = firstNonEmpty(c.ReferenceName, j.Reference, "reference")
	j.TestName = firstNonEmpty(c.TestName, j.Test, j.ErrorMap)
	j.BasePath = filepath.Join(c.Output, BaseName(j.ReferenceName, j.TestName, c.PPD))
	return j
}

// BaseName derives flip.<reference>.<test>.<ppd>ppd from display names.
func BaseName(reference, test string, ppd float64) string {
	return fmt.Sprintf("flip.%s.%s.%.0fppd", stem(reference), stem(test), ppd)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
