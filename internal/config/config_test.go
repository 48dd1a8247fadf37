package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TARGET_LABEL", "CONFIDENCE_THRESHOLD", "ALERT_COOLDOWN", "CORS_ORIGINS", "REQUIRE_LOGIN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	test.That(t, cfg.Port, test.ShouldEqual, 8080)
	test.That(t, cfg.TargetLabel, test.ShouldEqual, "ambulance")
	test.That(t, cfg.ConfidenceThreshold, test.ShouldEqual, 0.3)
	test.That(t, cfg.AlertCooldown, test.ShouldEqual, 5*time.Second)
	test.That(t, cfg.RequireLogin, test.ShouldBeFalse)
	test.That(t, cfg.CORSOrigins, test.ShouldBeEmpty)
	test.That(t, cfg.MediaURL, test.ShouldEqual, "/media/")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.55")
	t.Setenv("REQUIRE_LOGIN", "true")
	t.Setenv("ALERT_COOLDOWN", "250ms")
	t.Setenv("CORS_ORIGINS", " http://a.local, ,http://b.local ")

	cfg := Load()
	test.That(t, cfg.Port, test.ShouldEqual, 9090)
	test.That(t, cfg.ConfidenceThreshold, test.ShouldEqual, 0.55)
	test.That(t, cfg.RequireLogin, test.ShouldBeTrue)
	test.That(t, cfg.AlertCooldown, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.CORSOrigins, test.ShouldResemble, []string{"http://a.local", "http://b.local"})
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("ALERT_COOLDOWN", "-1s")

	cfg := Load()
	test.That(t, cfg.Port, test.ShouldEqual, 8080)
	test.That(t, cfg.AlertCooldown, test.ShouldEqual, 5*time.Second)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	test.That(t, os.WriteFile(path, []byte("TARGET_LABEL=fire truck\nMAX_STREAMS=7\n"), 0o644), test.ShouldBeNil)

	// Already set variables win over the file
	t.Setenv("MAX_STREAMS", "2")
	t.Setenv("TARGET_LABEL", "")
	os.Unsetenv("TARGET_LABEL")

	test.That(t, LoadEnvFile(path), test.ShouldBeNil)
	cfg := Load()
	test.That(t, cfg.TargetLabel, test.ShouldEqual, "fire truck")
	test.That(t, cfg.MaxStreams, test.ShouldEqual, 2)
}

func TestLoadEnvFileMissing(t *testing.T) {
	test.That(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")), test.ShouldBeNil)
	test.That(t, LoadEnvFile(""), test.ShouldBeNil)
}
