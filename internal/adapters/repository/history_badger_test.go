package repository_test

import (
	"context"
	"testing"

	"github.com/okian/zerodeadline/internal/adapters/repository"
	"github.com/okian/zerodeadline/internal/domain/history"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHistoryBadger(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory badger history", t, func() {
		db, err := repository.OpenBadger(repository.BadgerConfig{InMemory: true})
		So(err, ShouldBeNil)
		Reset(func() { _ = db.Close() })
		store := repository.NewHistoryBadger(db, repository.WithClock(stepClock()))

		Convey("When nothing was recorded", func() {
			So(store.Load(ctx), ShouldBeEmpty)
		})

		Convey("When scores are recorded", func() {
			first, err := store.Record(ctx, 33)
			So(err, ShouldBeNil)
			dup, err := store.Record(ctx, 33)
			So(err, ShouldBeNil)
			_, err = store.Record(ctx, 70)
			So(err, ShouldBeNil)

			Convey("Then duplicates are skipped", func() {
				So(first.Appended, ShouldBeTrue)
				So(first.HasPrevious, ShouldBeFalse)
				So(dup.Appended, ShouldBeFalse)
				So(dup.Previous.Risk, ShouldEqual, 33)
				got := store.Load(ctx)
				So(got, ShouldHaveLength, 2)
				So(got[1].Risk, ShouldEqual, 70)
			})
		})

		Convey("When more than the cap is recorded", func() {
			for i := range history.MaxEntries + 3 {
				_, err := store.Record(ctx, i)
				So(err, ShouldBeNil)
			}
			got := store.Load(ctx)
			So(got, ShouldHaveLength, history.MaxEntries)
			So(got[0].Risk, ShouldEqual, 3)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.Record(cctx, 5)
			So(err, ShouldEqual, context.Canceled)
		})
	})

	Convey("Given a badger history on disk", t, func() {
		dir := t.TempDir()
		db, err := repository.OpenBadger(repository.BadgerConfig{Path: dir, SyncWrites: true})
		So(err, ShouldBeNil)
		_, err = repository.NewHistoryBadger(db).Record(ctx, 61)
		So(err, ShouldBeNil)
		So(db.Close(), ShouldBeNil)

		Convey("Then the history survives a reopen", func() {
			db2, err := repository.OpenBadger(repository.BadgerConfig{Path: dir})
			So(err, ShouldBeNil)
			defer db2.Close()
			got := repository.NewHistoryBadger(db2).Load(ctx)
			So(got, ShouldHaveLength, 1)
			So(got[0].Risk, ShouldEqual, 61)
		})
	})

	Convey("Given a persistent config without a path", t, func() {
		_, err := repository.OpenBadger(repository.BadgerConfig{})
		So(err, ShouldNotBeNil)
	})
}
