package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shop-sim-viewer/src/helpers"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")

		Convey("Omitted keys keep their defaults", func() {
			yml := "name: test-viewer\nport: 9000\napi:\n  base_url: http://sim:5000\n"
			So(os.WriteFile(path, []byte(yml), 0644), ShouldBeNil)

			cfg, err := NewConfig(path)
			So(err, ShouldBeNil)
			So(cfg.Name, ShouldEqual, "test-viewer")
			So(cfg.Port, ShouldEqual, 9000)
			So(cfg.API.BaseURL, ShouldEqual, "http://sim:5000")
			So(cfg.API.TimeoutSeconds, ShouldEqual, 0)
			So(cfg.Animation.StepMs, ShouldEqual, DefaultStepMs)
			So(cfg.Animation.DwellMs, ShouldEqual, DefaultDwellMs)
			So(cfg.Animation.CollectionPauseMs, ShouldEqual, DefaultCollectionPauseMs)
			So(cfg.Viewer.DefaultStart.Col, ShouldEqual, 15)
			So(cfg.Storage.DBType, ShouldEqual, "sqlite")
		})

		Convey("An invalid port is rejected as a configuration error", func() {
			So(os.WriteFile(path, []byte("port: 80\n"), 0644), ShouldBeNil)

			_, err := NewConfig(path)
			So(err, ShouldNotBeNil)
			var cfgErr *helpers.ConfigurationError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
		})

		Convey("Negative pacing is rejected", func() {
			So(os.WriteFile(path, []byte("animation:\n  dwell_ms: -1\n"), 0644), ShouldBeNil)
			_, err := NewConfig(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "dwell_ms")
		})

		Convey("Postgres needs a connection string", func() {
			So(os.WriteFile(path, []byte("storage:\n  db_type: postgres\n"), 0644), ShouldBeNil)
			_, err := NewConfig(path)
			So(err, ShouldNotBeNil)
		})

		Convey("Save round-trips through the file", func() {
			cfg := Default()
			cfg.Name = "saved"
			So(cfg.Save(path), ShouldBeNil)

			loaded, err := NewConfig(path)
			So(err, ShouldBeNil)
			So(loaded.Name, ShouldEqual, "saved")
			So(loaded.Viewer.CellSize, ShouldEqual, DefaultCellSize)
		})

		Convey("A missing file fails", func() {
			_, err := NewConfig(filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
