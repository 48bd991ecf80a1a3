package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reframe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.DownloadCache.Dir = filepath.Join(base, "dlcache")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSceneWorkers overrides the scene render worker count.
func WithSceneWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.SceneWorkers = workers
	}
}

// WithDownloadCache enables the scene document download cache.
func WithDownloadCache(maxGiB int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DownloadCache.Enabled = true
		b.cfg.DownloadCache.MaxGiB = maxGiB
	}
}

// WithStubbedBinaries writes stub executables for the provided names, points
// the render config at them, and prepends them to PATH. The stubs create
// their final argument so downstream steps see an output file. If names is
// empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nfor arg in \"$@\"; do out=\"$arg\"; done\n" +
			"case \"$out\" in /*) printf 'stub output' > \"$out\";; esac\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "ffmpeg":
				b.cfg.Render.FFmpegBinary = target
			case "ffprobe":
				b.cfg.Render.FFprobeBinary = target
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
