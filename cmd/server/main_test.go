package main

import (
	"os"
	"path/filepath"
	"testing"

	"ambulancewatch/internal/config"

	"github.com/urfave/cli/v2"
	"go.viam.com/test"
)

// loadServeConfig runs the CLI with args and returns the config serve would start with.
func loadServeConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	t.Setenv("TARGET_LABEL", "")
	os.Unsetenv("TARGET_LABEL")

	var got *config.Config
	capture := func(c *cli.Context) error {
		cfg, err := serveConfig(c)
		got = cfg
		return err
	}
	a := newApp()
	a.Action = capture
	a.Commands[0].Action = capture

	test.That(t, a.Run(append([]string{"ambulancewatch"}, args...)), test.ShouldBeNil)
	test.That(t, got, test.ShouldNotBeNil)
	return got
}

func TestServeFlags(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	test.That(t, os.WriteFile(envFile, []byte("TARGET_LABEL=fire truck\n"), 0o644), test.ShouldBeNil)

	tests := []struct {
		name string
		args []string
	}{
		{"without subcommand", []string{"--env-file", envFile, "--port", "9191", "--camera", "clip.mp4", "--require-login"}},
		{"after serve", []string{"serve", "--env-file", envFile, "--port", "9191", "--camera", "clip.mp4", "--require-login"}},
		{"env file before serve", []string{"--env-file", envFile, "serve", "--port", "9191", "--camera", "clip.mp4", "--require-login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadServeConfig(t, tt.args...)
			test.That(t, cfg.Port, test.ShouldEqual, 9191)
			test.That(t, cfg.CameraSource, test.ShouldEqual, "clip.mp4")
			test.That(t, cfg.RequireLogin, test.ShouldBeTrue)
			test.That(t, cfg.TargetLabel, test.ShouldEqual, "fire truck")
		})
	}
}

func TestServeFlagsDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REQUIRE_LOGIN", "")

	cfg := loadServeConfig(t, "serve")
	test.That(t, cfg.Port, test.ShouldEqual, 8080)
	test.That(t, cfg.RequireLogin, test.ShouldBeFalse)
	test.That(t, cfg.TargetLabel, test.ShouldEqual, "ambulance")
}
