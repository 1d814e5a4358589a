package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.HistoryBackend, convey.ShouldEqual, config.HistoryBackendFile)
			convey.So(cfg.LLMMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.LLMRetryBase(), convey.ShouldEqual, time.Second)
			convey.So(cfg.CalendarWindowDays, convey.ShouldEqual, 14)
			convey.So(cfg.CalendarMaxResults, convey.ShouldEqual, 200)
			convey.So(cfg.LLMEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.CalendarEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Location defaults to the local zone", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.Local)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty data dir", func(c *config.Config) { c.DataDir = " " }},
			{"unknown backend", func(c *config.Config) { c.HistoryBackend = "sqlite" }},
			{"zero attempts", func(c *config.Config) { c.LLMMaxAttempts = 0 }},
			{"bad timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
			{"zero window", func(c *config.Config) { c.CalendarWindowDays = 0 }},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
