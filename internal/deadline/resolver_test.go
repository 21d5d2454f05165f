package deadline_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/pledge/internal/deadline"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, msk)
}

func TestResolve(t *testing.T) {
	r := deadline.Default()
	friday := at(2025, 10, 24, 10, 0, 0)

	tests := []struct {
		name   string
		phrase string
		ref    time.Time
		want   time.Time
	}{
		{"tomorrow with clock", "завтра до 18:00", friday, at(2025, 10, 25, 18, 0, 0)},
		{"tomorrow uppercase", "ЗАВТРА ДО 18:00", friday, at(2025, 10, 25, 18, 0, 0)},
		{"tomorrow trailing punctuation", "Завтра.", friday, at(2025, 10, 25, 18, 0, 0)},
		{"tomorrow morning clock", "завтра в 10.30", friday, at(2025, 10, 25, 10, 30, 0)},
		{"today afternoon", "сегодня", at(2025, 10, 24, 16, 0, 0), at(2025, 10, 24, 18, 0, 0)},
		{"today after business hours", "сегодня", at(2025, 10, 24, 19, 30, 0), at(2025, 10, 24, 23, 59, 59)},
		{"today explicit clock", "сегодня до 15:30", friday, at(2025, 10, 24, 15, 30, 0)},
		{"end of day ru", "до конца дня", friday, at(2025, 10, 24, 18, 0, 0)},
		{"end of day en", "by end of day", friday, at(2025, 10, 24, 18, 0, 0)},
		{"urgent today", "сегодня обязательно", friday, at(2025, 10, 24, 18, 0, 0)},
		{"tomorrow en", "tomorrow", friday, at(2025, 10, 25, 18, 0, 0)},
		{"day after tomorrow", "послезавтра", friday, at(2025, 10, 26, 18, 0, 0)},
		{"day after tomorrow en clock", "day after tomorrow at 9:15", friday, at(2025, 10, 26, 9, 15, 0)},
		{"days digits", "через 2 дня", friday, at(2025, 10, 26, 10, 0, 0)},
		{"days words", "через два дня", friday, at(2025, 10, 26, 10, 0, 0)},
		{"days genitive plural", "через 5 дней", friday, at(2025, 10, 29, 10, 0, 0)},
		{"hours", "через 3 часа", friday, at(2025, 10, 24, 13, 0, 0)},
		{"bare hour", "через час", friday, at(2025, 10, 24, 11, 0, 0)},
		{"minutes en", "in 45 minutes", friday, at(2025, 10, 24, 10, 45, 0)},
		{"an hour en", "in an hour", friday, at(2025, 10, 24, 11, 0, 0)},
		{"bare week", "через неделю", friday, at(2025, 10, 31, 10, 0, 0)},
		{"weeks en", "in 2 weeks", friday, at(2025, 11, 7, 10, 0, 0)},
		{"this week", "на этой неделе", friday, at(2025, 10, 26, 18, 0, 0)},
		{"end of week", "до конца недели", friday, at(2025, 10, 26, 18, 0, 0)},
		{"this week en", "this week", friday, at(2025, 10, 26, 18, 0, 0)},
		{"next week", "на следующей неделе", friday, at(2025, 11, 2, 18, 0, 0)},
		{"next week en", "next week", friday, at(2025, 11, 2, 18, 0, 0)},
		{"same weekday is next week", "в пятницу", friday, at(2025, 10, 31, 18, 0, 0)},
		{"weekday genitive", "до понедельника", friday, at(2025, 10, 27, 18, 0, 0)},
		{"weekday en with clock", "by wednesday 12:00", friday, at(2025, 10, 29, 12, 0, 0)},
		{"yo folding", "завтра, ещё до обеда в 13:00", friday, at(2025, 10, 25, 13, 0, 0)},
		{"day after tomorrow before tomorrow", "не завтра, а послезавтра", friday, at(2025, 10, 26, 18, 0, 0)},
		{"month boundary", "завтра", at(2025, 10, 31, 9, 0, 0), at(2025, 11, 1, 18, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.phrase, tt.ref)
			if !ok {
				t.Fatalf("Resolve(%q) unresolved, want %v", tt.phrase, tt.want)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
			if got.Location() != tt.ref.Location() {
				t.Errorf("location = %v, want %v", got.Location(), tt.ref.Location())
			}
		})
	}
}

func TestResolveUnresolved(t *testing.T) {
	r := deadline.Default()
	ref := at(2025, 10, 24, 10, 0, 0)

	phrases := []string{
		"",
		"   ",
		"не указан",
		"Не указано",
		"unknown",
		"через 0 дней",
		"через -2 дня",
		"через несколько дней",
		"in 2.5 hours",
		"когда-нибудь",
		"как только сможем",
		"в 10:30",
		"через",
		"in 3000000 hours",
		"через 200000000 минут",
		"через 99999999999999999999 дней",
		"in 1000 weeks",
		"через 3651 день",
	}

	for _, p := range phrases {
		t.Run(p, func(t *testing.T) {
			if got, ok := r.Resolve(p, ref); ok {
				t.Errorf("Resolve(%q) = %v, want unresolved", p, got)
			}
		})
	}
}

func TestResolveLongOffsetWithinHorizon(t *testing.T) {
	r := deadline.Default()
	ref := at(2025, 10, 24, 10, 0, 0)

	got, ok := r.Resolve("через 3650 дней", ref)
	if !ok {
		t.Fatal("Resolve(через 3650 дней) unresolved, want resolved")
	}
	if want := ref.AddDate(0, 0, 3650); !got.Equal(want) {
		t.Errorf("Resolve(через 3650 дней) = %v, want %v", got, want)
	}
	if !got.After(ref) {
		t.Errorf("offset resolved before reference: %v", got)
	}
}

func TestResolveConfiguredCalendar(t *testing.T) {
	cfg := &deadline.Config{BusinessDayEnd: "17:30", WeekEnd: "friday"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	r := deadline.New(cfg)

	tests := []struct {
		name   string
		phrase string
		ref    time.Time
		want   time.Time
	}{
		{"business day end", "сегодня", at(2025, 10, 22, 9, 0, 0), at(2025, 10, 22, 17, 30, 0)},
		{"week end on friday", "на этой неделе", at(2025, 10, 22, 9, 0, 0), at(2025, 10, 24, 17, 30, 0)},
		{"week end is today", "до конца недели", at(2025, 10, 24, 9, 0, 0), at(2025, 10, 24, 17, 30, 0)},
		{"week end already past", "до конца недели", at(2025, 10, 24, 20, 0, 0), at(2025, 10, 24, 23, 59, 59)},
		{"next week end", "next week", at(2025, 10, 22, 9, 0, 0), at(2025, 10, 31, 17, 30, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.phrase, tt.ref)
			if !ok || !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, %v; want %v", tt.phrase, got, ok, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := deadline.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if h, m := cfg.DayEnd(); h != 18 || m != 0 {
			t.Errorf("DayEnd() = %d:%d, want 18:0", h, m)
		}
		if cfg.WeekEndDay() != time.Sunday {
			t.Errorf("WeekEndDay() = %v, want Sunday", cfg.WeekEndDay())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("PLEDGE_TEST_DAY_END", "19:15")
		t.Setenv("PLEDGE_TEST_WEEK_END", "Saturday")

		cfg := deadline.Config{}
		err := cfg.Finalize(&deadline.Env{
			BusinessDayEnd: "PLEDGE_TEST_DAY_END",
			WeekEnd:        "PLEDGE_TEST_WEEK_END",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if h, m := cfg.DayEnd(); h != 19 || m != 15 {
			t.Errorf("DayEnd() = %d:%d, want 19:15", h, m)
		}
		if cfg.WeekEndDay() != time.Saturday {
			t.Errorf("WeekEndDay() = %v, want Saturday", cfg.WeekEndDay())
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			cfg     deadline.Config
			wantErr string
		}{
			{deadline.Config{BusinessDayEnd: "6pm"}, "invalid business_day_end"},
			{deadline.Config{WeekEnd: "someday"}, "invalid week_end"},
		}
		for _, tt := range tests {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		}
	})

	t.Run("merge", func(t *testing.T) {
		base := deadline.Config{BusinessDayEnd: "18:00", WeekEnd: "sunday"}
		base.Merge(&deadline.Config{WeekEnd: "friday"})
		if base.BusinessDayEnd != "18:00" || base.WeekEnd != "friday" {
			t.Errorf("merge result = %+v", base)
		}
	})
}
