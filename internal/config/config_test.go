package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(viper.New(), fs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, "-r", "ref.png", "-t", "test.png")
	require.NoError(t, err)

	assert.Equal(t, DefaultPPD, cfg.PPD)
	assert.Equal(t, 100, cfg.Buckets)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Equal(t, ".", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Verbose)
}

func TestLoadDeduplicatesTests(t *testing.T) {
	cfg, err := load(t, "-r", "ref.png", "-t", "a.png,b.png", "-t", "a.png", "-t", "c.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, cfg.Tests.Values())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FLIP_PPD", "40")
	t.Setenv("FLIP_LOG_LEVEL", "debug")

	cfg, err := load(t, "-r", "ref.png", "-t", "test.png")
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.PPD)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = load(t, "-r", "ref.png", "-t", "test.png", "--ppd", "90")
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.PPD, "flags take precedence over the environment")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reference: ref.png\ntest:\n  - one.png\n  - two.png\nbuckets: 32\n"), 0o644))

	cfg, err := load(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "ref.png", cfg.Reference)
	assert.Equal(t, []string{"one.png", "two.png"}, cfg.Tests.Values())
	assert.Equal(t, 32, cfg.Buckets)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"reference without test", []string{"-r", "ref.png"}},
		{"tests and error maps", []string{"-r", "ref.png", "-t", "a.png", "-e", "map.exr"}},
		{"zero buckets", []string{"-e", "map.exr", "--buckets", "0"}},
		{"negative ppd", []string{"-e", "map.exr", "--ppd=-1"}},
		{"negative width", []string{"-e", "map.exr", "--width=-5"}},
		{"negative workers", []string{"-e", "map.exr", "--workers=-2"}},
		{"basename with many jobs", []string{"-r", "ref.png", "-t", "a.png,b.png", "-b", "out"}},
		{"bad log level", []string{"-e", "map.exr", "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestJobs(t *testing.T) {
	cfg, err := load(t, "-r", "images/ref.png", "-t", "images/a.png,images/b.exr", "-d", "out")
	require.NoError(t, err)

	jobs := cfg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, Job{
		Reference:     "images/ref.png",
		Test:          "images/a.png",
		ReferenceName: "images/ref.png",
		TestName:      "images/a.png",
		BasePath:      filepath.Join("out", "flip.ref.a.67ppd"),
	}, jobs[0])
	assert.Equal(t, filepath.Join("out", "flip.ref.b.67ppd"), jobs[1].BasePath)
}

func TestJobsFromErrorMaps(t *testing.T) {
	cfg, err := load(t, "-e", "maps/err.exr", "--reference-name", "gt", "-b", "custom")
	require.NoError(t, err)

	jobs := cfg.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "maps/err.exr", jobs[0].ErrorMap)
	assert.Equal(t, "gt", jobs[0].ReferenceName)
	assert.Equal(t, "maps/err.exr", jobs[0].TestName)
	assert.Equal(t, filepath.Join(".", "custom"), jobs[0].BasePath)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "flip.ref.test.67ppd", BaseName("dir/ref.png", "test.exr", 67))
	assert.Equal(t, "flip.a.b.68ppd", BaseName("a", "b", 67.5))
}
