package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/zerodeadline/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.New()
		So(d.Size(), ShouldEqual, 0)

		Convey("When an id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "sample-1")
			second := d.SeenAndRecord(ctx, "sample-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "sample-1")
			d.Unrecord(ctx, "sample-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sample-1"), ShouldBeFalse)
			})
		})

		Convey("When seeded from stored ids", func() {
			d.Seed(ctx, "a", "b", "", "a")

			Convey("Then blank ids are skipped and seeded ids are seen", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(3))
		for i := range 4 {
			d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
		}

		Convey("Then the oldest id is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "id-3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "id-1"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "id-0"), ShouldBeFalse)
		})
	})

	Convey("Given concurrent writers of the same id", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "shared") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		So(fresh, ShouldEqual, 1)
		So(d.Size(), ShouldEqual, 1)
	})
}
