package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/http/api"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/adapters/repository"
	service "github.com/okian/zerodeadline/internal/app"
	"github.com/okian/zerodeadline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type staticAsker string

func (a staticAsker) Ask(context.Context, string) (string, error) { return string(a), nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	svc := service.New(
		service.WithScheduleBook(repository.NewScheduleBook(filepath.Join(dir, "schedules.json"))),
		service.WithStressLog(repository.NewStressLog(filepath.Join(dir, "stress_log.json"))),
		service.WithHistory(repository.NewHistoryFile(filepath.Join(dir, "risk_history.json"))),
		service.WithAdvisor(llm.NewAdvisor(staticAsker("Take a break."))),
		service.WithLocation(time.UTC),
		service.WithClock(clock),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

// run executes riskctl with args against url and returns its output.
func run(url string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", url, "--timeout", "5s"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRiskctl(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newTestServer(t)

		Convey("When a schedule is added and listed", func() {
			_, err := run(srv.URL, "schedule", "add", "exam", "--deadline", "2025-03-12", "--importance", "4")
			So(err, ShouldBeNil)
			out, err := run(srv.URL, "schedule", "list")

			Convey("Then the table shows it", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "INDEX")
				So(out, ShouldContainSubstring, "exam")
				So(out, ShouldContainSubstring, "2025-03-12")
			})

			Convey("And it can be deleted by index", func() {
				out, err := run(srv.URL, "schedule", "delete", "0")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `deleted "exam"`)
			})
		})

		Convey("When the dashboard is requested", func() {
			out, err := run(srv.URL, "dashboard")

			Convey("Then the combined risk is printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Combined risk: 10/100 (stable)")
				So(out, ShouldContainSubstring, "no records")
			})

			Convey("And the history has one entry", func() {
				out, err := run(srv.URL, "--json", "history")
				So(err, ShouldBeNil)
				var entries []map[string]any
				So(json.Unmarshal([]byte(out), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When stress is recorded with an id twice", func() {
			first, err := run(srv.URL, "stress", "add", "6", "--id", "x1")
			So(err, ShouldBeNil)
			second, err := run(srv.URL, "stress", "add", "6", "--id", "x1")
			So(err, ShouldBeNil)

			Convey("Then the second is reported as duplicate", func() {
				So(first, ShouldStartWith, "recorded x1")
				So(second, ShouldStartWith, "duplicate x1")
			})

			Convey("And the trend shows the sample", func() {
				out, err := run(srv.URL, "stress", "trend", "--period", "month")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "6.00")
			})
		})

		Convey("When advice and chat are requested", func() {
			advice, err := run(srv.URL, "advise", "exam week")
			So(err, ShouldBeNil)
			So(advice, ShouldContainSubstring, "Take a break.")

			transcript := filepath.Join(t.TempDir(), "chat.json")
			_, err = run(srv.URL, "chat", "hello", "--transcript", transcript)
			So(err, ShouldBeNil)
			_, err = run(srv.URL, "chat", "again", "--transcript", transcript)
			So(err, ShouldBeNil)

			Convey("Then the transcript accumulates turns", func() {
				conv, err := readTranscript(transcript)
				So(err, ShouldBeNil)
				So(conv, ShouldHaveLength, 5)
				So(conv[4].Text, ShouldEqual, "Take a break.")
			})
		})

		Convey("When the calendar is not configured", func() {
			_, err := run(srv.URL, "calendar")

			Convey("Then the server error is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "503")
			})
		})

		Convey("When arguments are invalid", func() {
			_, err := run(srv.URL, "stress", "add", "high")
			So(err, ShouldNotBeNil)

			_, err = run(srv.URL, "schedule", "delete", "first")
			So(err, ShouldNotBeNil)
		})
	})
}
