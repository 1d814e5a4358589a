package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/repository"
	service "github.com/okian/zerodeadline/internal/app"
	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// newBadgerService wires the history to an in-memory badger database.
func newBadgerService(t *testing.T) *service.Service {
	t.Helper()
	db, err := repository.OpenBadger(repository.BadgerConfig{InMemory: true, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	clock := func() time.Time { return fixedNow }
	svc := service.New(
		service.WithScheduleBook(repository.NewScheduleBook(filepath.Join(dir, "schedules.json"))),
		service.WithStressLog(repository.NewStressLog(filepath.Join(dir, "stress_log.json"), repository.WithClock(clock))),
		service.WithHistory(repository.NewHistoryBadger(db, repository.WithClock(clock))),
		service.WithLocation(time.UTC),
		service.WithClock(clock),
		service.WithDedupeSize(500),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a badger history", t, func() {
		svc := newBadgerService(t)

		Convey("When schedules change between evaluations", func() {
			var risks []int
			for i := 0; i < 5; i++ {
				_, err := svc.AddSchedule(ctx, model.ScheduleItem{
					Title:      fmt.Sprintf("task-%d", i),
					Deadline:   fixedNow.AddDate(0, 0, i).Format(model.DeadlineLayout),
					Importance: model.NewImportance(3),
				})
				So(err, ShouldBeNil)
				d, err := svc.Dashboard(ctx)
				So(err, ShouldBeNil)
				risks = append(risks, d.Combined)
			}

			Convey("Then every distinct value is recorded in order", func() {
				entries := svc.History(ctx)
				So(len(entries), ShouldBeGreaterThan, 1)
				last, ok := history.Last(entries)
				So(ok, ShouldBeTrue)
				So(last.Risk, ShouldEqual, risks[len(risks)-1])
				for i := 1; i < len(entries); i++ {
					So(entries[i].Risk, ShouldNotEqual, entries[i-1].Risk)
				}
			})
		})

		Convey("When the history would exceed its cap", func() {
			for i := 0; i < history.MaxEntries+10; i++ {
				item := model.ScheduleItem{Title: "t", Deadline: "2025-03-10", Importance: model.NewImportance(1 + i%5)}
				if i%2 == 0 {
					_, err := svc.AddSchedule(ctx, item)
					So(err, ShouldBeNil)
				} else {
					_, err := svc.DeleteSchedule(ctx, 0)
					So(err, ShouldBeNil)
				}
				_, err := svc.Dashboard(ctx)
				So(err, ShouldBeNil)
			}

			Convey("Then at most MaxEntries are kept", func() {
				So(len(svc.History(ctx)), ShouldBeLessThanOrEqualTo, history.MaxEntries)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service receiving the same samples from many clients", t, func() {
		svc := newBadgerService(t)
		ids := []string{"a", "b", "c", "d", "e"}

		var wg sync.WaitGroup
		var mu sync.Mutex
		duplicates := 0
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, id := range ids {
					_, dup, err := svc.RecordStress(ctx, model.StressSample{ID: id, Stress: 5})
					if err != nil {
						t.Errorf("record %s: %v", id, err)
						continue
					}
					if dup {
						mu.Lock()
						duplicates++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is stored exactly once", func() {
			report, err := svc.StressTrend(ctx, "day")
			So(err, ShouldBeNil)
			So(report.Summary.Count, ShouldEqual, len(ids))
			So(duplicates, ShouldEqual, 10*len(ids)-len(ids))
		})
	})

	Convey("Given concurrent dashboard refreshes", t, func() {
		svc := newBadgerService(t)
		_, err := svc.AddSchedule(ctx, model.ScheduleItem{Title: "exam", Deadline: "2025-03-12", Importance: model.NewImportance(4)})
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Dashboard(ctx); err != nil {
					t.Errorf("dashboard: %v", err)
				}
			}()
		}
		wg.Wait()

		Convey("Then the unchanged risk is recorded once", func() {
			So(svc.History(ctx), ShouldHaveLength, 1)
		})
	})
}
