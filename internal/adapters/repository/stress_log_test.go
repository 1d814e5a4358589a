package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/repository"
	"github.com/okian/zerodeadline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStressLog(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 2, 10, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	Convey("Given a stress log", t, func() {
		path := filepath.Join(t.TempDir(), "stress_log.json")
		log := repository.NewStressLog(path, repository.WithClock(clock))

		Convey("When it does not exist yet", func() {
			So(log.Load(ctx), ShouldBeEmpty)
		})

		Convey("When samples are appended", func() {
			at := time.Date(2025, 4, 1, 21, 0, 0, 0, time.Local)
			_, err := log.Append(ctx, model.StressSample{ID: "s1", Timestamp: at, Stress: 6.5})
			So(err, ShouldBeNil)
			stored, err := log.Append(ctx, model.StressSample{Stress: 3})
			So(err, ShouldBeNil)

			Convey("Then they load in order", func() {
				got := log.Load(ctx)
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, "s1")
				So(got[0].Timestamp.Equal(at), ShouldBeTrue)
				So(got[1].Stress, ShouldEqual, 3.0)
			})

			Convey("Then a missing time is stamped with now", func() {
				So(stored.Timestamp, ShouldEqual, now)
			})
		})

		Convey("When a sample is out of range", func() {
			_, err := log.Append(ctx, model.StressSample{Stress: 11})
			So(errors.Is(err, repository.ErrInvalidSample), ShouldBeTrue)
			So(log.Load(ctx), ShouldBeEmpty)
		})

		Convey("When the file holds legacy and broken records", func() {
			legacy := `[
				{"date": "2025-03-30 08:00:00", "stress": 4},
				{"date": "someday", "stress": "7"},
				{"date": "2025-03-31", "stress": "calm"}
			]`
			So(os.WriteFile(path, []byte(legacy), 0o644), ShouldBeNil)

			Convey("Then readable records load and others are skipped", func() {
				got := log.Load(ctx)
				So(got, ShouldHaveLength, 2)
				So(got[0].Stress, ShouldEqual, 4.0)
				So(got[1].Stress, ShouldEqual, 7.0)
				So(got[1].Timestamp, ShouldEqual, now)
			})

			Convey("Then appending keeps the original records", func() {
				_, err := log.Append(ctx, model.StressSample{Stress: 2})
				So(err, ShouldBeNil)
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "calm")
				So(log.Load(ctx), ShouldHaveLength, 3)
			})
		})

		Convey("When the file is corrupt", func() {
			So(os.WriteFile(path, []byte("]]"), 0o644), ShouldBeNil)
			So(log.Load(ctx), ShouldBeEmpty)

			_, err := log.Append(ctx, model.StressSample{Stress: 4})
			So(err, ShouldBeNil)
			So(log.Load(ctx), ShouldHaveLength, 1)
		})

		Convey("When the file exists but cannot be read", func() {
			_, err := log.Append(ctx, model.StressSample{ID: "keep", Stress: 6})
			So(err, ShouldBeNil)
			before, err := os.ReadFile(path)
			So(err, ShouldBeNil)

			failing := repository.NewStressLog(path, repository.WithClock(clock))
			repository.FailReads(failing, syscall.EIO)
			_, err = failing.Append(ctx, model.StressSample{ID: "lost", Stress: 2})

			Convey("Then Append fails and the log is unchanged", func() {
				So(errors.Is(err, syscall.EIO), ShouldBeTrue)
				after, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(after), ShouldEqual, string(before))
			})
		})
	})
}
