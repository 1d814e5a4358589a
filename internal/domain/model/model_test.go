package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScheduleItem_Unmarshal(t *testing.T) {
	Convey("Given schedule records in canonical and legacy form", t, func() {
		Convey("When decoding canonical keys", func() {
			var item model.ScheduleItem
			err := json.Unmarshal([]byte(`{"title":"report","deadline":"2025-03-01","importance":4}`), &item)

			Convey("Then every field is populated", func() {
				So(err, ShouldBeNil)
				So(item.Title, ShouldEqual, "report")
				So(item.Deadline, ShouldEqual, "2025-03-01")
				v, ok := item.Importance.Value()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 4)
			})
		})

		Convey("When decoding legacy localized keys", func() {
			var legacy, canonical model.ScheduleItem
			So(json.Unmarshal([]byte(`{"제목":"과제","마감일":"2025-03-01","중요도":3}`), &legacy), ShouldBeNil)
			So(json.Unmarshal([]byte(`{"title":"과제","deadline":"2025-03-01","importance":3}`), &canonical), ShouldBeNil)

			Convey("Then the result equals the canonical decode", func() {
				So(legacy, ShouldResemble, canonical)
			})
		})

		Convey("When both key styles are present", func() {
			var item model.ScheduleItem
			So(json.Unmarshal([]byte(`{"title":"a","제목":"b","importance":2,"중요도":5}`), &item), ShouldBeNil)

			Convey("Then canonical keys win", func() {
				So(item.Title, ShouldEqual, "a")
				v, _ := item.Importance.Value()
				So(v, ShouldEqual, 2)
			})
		})

		Convey("When importance is malformed", func() {
			cases := map[string]struct {
				raw string
				ok  bool
				v   int
			}{
				"string number": {`"7"`, true, 7},
				"float":         {`3.9`, true, 3},
				"text":          {`"high"`, false, 0},
				"null":          {`null`, false, 0},
				"bool":          {`true`, false, 0},
			}
			for _, tc := range cases {
				var item model.ScheduleItem
				err := json.Unmarshal([]byte(`{"title":"x","importance":`+tc.raw+`}`), &item)
				So(err, ShouldBeNil)
				v, ok := item.Importance.Value()
				So(ok, ShouldEqual, tc.ok)
				if tc.ok {
					So(v, ShouldEqual, tc.v)
				}
			}
		})

		Convey("When the deadline has the wrong type", func() {
			var item model.ScheduleItem
			err := json.Unmarshal([]byte(`{"title":"x","deadline":20250301}`), &item)

			Convey("Then it decodes as no deadline", func() {
				So(err, ShouldBeNil)
				So(item.Deadline, ShouldEqual, "")
			})
		})

		Convey("When the record is not an object", func() {
			var item model.ScheduleItem
			err := json.Unmarshal([]byte(`[1,2]`), &item)

			Convey("Then decoding fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestImportance_Clamp(t *testing.T) {
	Convey("Given importances", t, func() {
		So(model.Importance{}.Clamp(1, 10), ShouldEqual, 1)
		So(model.NewImportance(0).Clamp(1, 5), ShouldEqual, 1)
		So(model.NewImportance(-4).Clamp(1, 5), ShouldEqual, 1)
		So(model.NewImportance(3).Clamp(1, 5), ShouldEqual, 3)
		So(model.NewImportance(9).Clamp(1, 5), ShouldEqual, 5)
		So(model.NewImportance(9).Clamp(1, 10), ShouldEqual, 9)
	})

	Convey("Given a schedule item written back to JSON", t, func() {
		item := model.ScheduleItem{Title: "t", Deadline: "2025-01-01", Importance: model.NewImportance(2)}
		data, err := json.Marshal(item)
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"title":"t","deadline":"2025-01-01","importance":2}`)

		missing, err := json.Marshal(model.ScheduleItem{Title: "t"})
		So(err, ShouldBeNil)
		So(string(missing), ShouldEqual, `{"title":"t","deadline":"","importance":null}`)
	})
}

func TestStressSample_JSON(t *testing.T) {
	Convey("Given stored stress records", t, func() {
		Convey("When the record uses the date layout", func() {
			var s model.StressSample
			err := json.Unmarshal([]byte(`{"date":"2025-04-02 21:30:00","stress":6.5}`), &s)

			Convey("Then time and value are read", func() {
				So(err, ShouldBeNil)
				So(s.Stress, ShouldEqual, 6.5)
				So(s.Timestamp.Format(model.StressDateTimeLayout), ShouldEqual, "2025-04-02 21:30:00")
				So(s.Valid(), ShouldBeTrue)
			})
		})

		Convey("When the record carries a date only and a string value", func() {
			var s model.StressSample
			err := json.Unmarshal([]byte(`{"date":"2025-04-02","stress":"4"}`), &s)

			Convey("Then both are accepted", func() {
				So(err, ShouldBeNil)
				So(s.Stress, ShouldEqual, 4.0)
				So(s.Timestamp.Day(), ShouldEqual, 2)
			})
		})

		Convey("When the stress value is not numeric", func() {
			var s model.StressSample
			err := json.Unmarshal([]byte(`{"date":"2025-04-02","stress":"calm"}`), &s)

			Convey("Then ErrInvalidStress is returned", func() {
				So(errors.Is(err, model.ErrInvalidStress), ShouldBeTrue)
			})
		})

		Convey("When the time is unreadable", func() {
			var s model.StressSample
			err := json.Unmarshal([]byte(`{"date":"yesterday","stress":3}`), &s)

			Convey("Then the timestamp is left zero", func() {
				So(err, ShouldBeNil)
				So(s.Timestamp.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When a sample from another zone is stored and read back", func() {
			kst := time.FixedZone("KST", 9*60*60)
			at := time.Date(2026, 6, 15, 5, 0, 0, 0, kst)
			data, err := json.Marshal(model.StressSample{ID: "z", Timestamp: at, Stress: 5})
			So(err, ShouldBeNil)

			var back model.StressSample
			So(json.Unmarshal(data, &back), ShouldBeNil)

			Convey("Then the instant is unchanged", func() {
				So(back.Timestamp.Equal(at), ShouldBeTrue)
			})
		})

		Convey("When a sample is marshaled", func() {
			at := time.Date(2025, 4, 2, 9, 5, 0, 0, time.Local)
			data, err := json.Marshal(model.StressSample{ID: "a1", Timestamp: at, Stress: 7})

			Convey("Then the legacy layout is kept", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"id":"a1","date":"2025-04-02 09:05:00","stress":7}`)
			})
		})
	})
}

func TestRiskHistoryEntry_Time(t *testing.T) {
	Convey("Given history entries", t, func() {
		at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
		e := model.NewRiskHistoryEntry(at, 42)
		got, ok := e.Time()
		So(ok, ShouldBeTrue)
		So(got.Equal(at), ShouldBeTrue)

		legacy := model.RiskHistoryEntry{Timestamp: "2025-05-01T12:34:56.123456", Risk: 10}
		_, ok = legacy.Time()
		So(ok, ShouldBeTrue)

		_, ok = model.RiskHistoryEntry{Timestamp: "garbage"}.Time()
		So(ok, ShouldBeFalse)
	})
}
