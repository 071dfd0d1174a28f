package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mattsre/peakform/internal/config"
)

// Env-driven scenarios live in separate test functions: t.Setenv restores
// state when the test function ends, not per goconvey leaf, so sharing one
// function would leak overrides between branches.

func TestLoadDefaults(t *testing.T) {
	convey.Convey("Given no file or env overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the defaults come back intact", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg, convey.ShouldResemble, config.New())
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PEAKFORM_RAMP_CAP", "0.2")
	t.Setenv("PEAKFORM_WORKER_COUNT", "3")

	convey.Convey("Given env var overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the overrides win and the rest stay default", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.RampCap, convey.ShouldAlmostEqual, 0.2)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.RecoveryEvery, convey.ShouldEqual, config.New().RecoveryEvery)
		})
	})
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peakform.yaml")
	body := "taper_floor: 0.6\nmin_markers: 4\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PEAKFORM_CONFIG", path)

	convey.Convey("Given a YAML config file", t, func() {
		convey.Convey("Then its values layer over the defaults", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.TaperFloor, convey.ShouldAlmostEqual, 0.6)
			convey.So(cfg.MinMarkers, convey.ShouldEqual, 4)
		})
	})
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peakform.yaml")
	if err := os.WriteFile(path, []byte("taper_floor: 0.6\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PEAKFORM_CONFIG", path)
	t.Setenv("PEAKFORM_TAPER_FLOOR", "0.55")

	convey.Convey("Given a file and an env var for the same key", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the env var takes precedence", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.TaperFloor, convey.ShouldAlmostEqual, 0.55)
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("PEAKFORM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	convey.Convey("Given a config path that does not exist", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(cfg, convey.ShouldBeNil)
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoadInvalidOverrides(t *testing.T) {
	cases := map[string]string{
		"PEAKFORM_RAMP_CAP":     "1.5",
		"PEAKFORM_PRIOR_TAU2":   "0",
		"PEAKFORM_WORKER_COUNT": "-1",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			convey.Convey("Given an override that breaks validation", t, func() {
				cfg, err := config.Load(context.Background())

				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	}
}

func TestLoadCanceledContext(t *testing.T) {
	convey.Convey("Given an already canceled context", t, func() {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		cfg, err := config.Load(canceled)
		convey.So(cfg, convey.ShouldBeNil)
		convey.So(err, convey.ShouldEqual, context.Canceled)
	})
}
