// Package deadline resolves spoken relative deadline phrases ("завтра до
// 18:00", "через 2 дня", "by friday") into absolute timestamps anchored at
// the moment the promise was made.
package deadline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)

// maxOffset bounds relative offsets; anything further out is unresolved.
const maxOffset = 10 * 365 * 24 * time.Hour

// Resolver converts deadline phrases to timestamps. It is pure and safe for
// concurrent use.
type Resolver struct {
	dayEndHour   int
	dayEndMinute int
	weekEnd      time.Weekday
}

// New creates a Resolver from a finalized Config.
func New(cfg *Config) *Resolver {
	h, m := cfg.DayEnd()
	return &Resolver{
		dayEndHour:   h,
		dayEndMinute: m,
		weekEnd:      cfg.WeekEndDay(),
	}
}

// Default returns a Resolver with an 18:00 business-day end and Sunday week end.
func Default() *Resolver {
	cfg := &Config{}
	cfg.loadDefaults()
	return New(cfg)
}

type clock struct {
	hour, minute int
}

// Resolve returns the absolute deadline for phrase relative to ref, or false
// when the phrase carries no recognizable deadline. Results are computed in
// ref's location. Resolve never fails: malformed numerals and unknown phrases
// are reported as unresolved.
func (r *Resolver) Resolve(phrase string, ref time.Time) (time.Time, bool) {
	tokens := tokenize(phrase)
	if len(tokens) == 0 {
		return time.Time{}, false
	}

	if hasAny(tokens, noDeadlineMarkers) {
		return time.Time{}, false
	}

	clk, tokens := extractClock(tokens)

	switch {
	case hasAny(tokens, sameDayMarkers):
		return r.dayAt(ref, 0, clk), true
	case hasAny(tokens, dayAfterTomorrowMarkers):
		return r.dayAt(ref, 2, clk), true
	case hasAny(tokens, tomorrowMarkers):
		return r.dayAt(ref, 1, clk), true
	}

	if t, matched, ok := resolveOffset(tokens, ref); matched {
		return t, ok
	}

	if hasAny(tokens, thisWeekMarkers) {
		return r.dayAt(ref, r.daysToWeekEnd(ref), clk), true
	}
	if hasAny(tokens, nextWeekMarkers) {
		return r.dayAt(ref, r.daysToWeekEnd(ref)+7, clk), true
	}

	for _, tok := range tokens {
		if wd, ok := weekdayForms[tok]; ok {
			days := (int(wd) - int(ref.Weekday()) + 7) % 7
			if days == 0 {
				days = 7
			}
			return r.dayAt(ref, days, clk), true
		}
	}

	return time.Time{}, false
}

// dayAt returns the business-day end (or the explicit clock time) on the
// date days after ref. A same-day result that would already lie before ref
// moves to the last second of that day.
func (r *Resolver) dayAt(ref time.Time, days int, clk *clock) time.Time {
	y, m, d := ref.Date()

	h, min := r.dayEndHour, r.dayEndMinute
	if clk != nil {
		h, min = clk.hour, clk.minute
	}

	t := time.Date(y, m, d+days, h, min, 0, 0, ref.Location())
	if clk == nil && t.Before(ref) {
		t = time.Date(y, m, d+days, 23, 59, 59, 0, ref.Location())
	}
	return t
}

func (r *Resolver) daysToWeekEnd(ref time.Time) int {
	return (int(r.weekEnd) - int(ref.Weekday()) + 7) % 7
}

// resolveOffset handles "через N <unit>" and "in N <unit>". matched reports
// whether the phrase had the offset shape at all; ok is false when it did but
// the numeral was zero, negative, or unparseable.
func resolveOffset(tokens []string, ref time.Time) (t time.Time, matched, ok bool) {
	for i, tok := range tokens {
		if tok != "через" && tok != "in" && tok != "within" {
			continue
		}
		if i+1 >= len(tokens) {
			continue
		}

		next := tokens[i+1]
		if u, isUnit := lookupUnit(next); isUnit {
			return applyOffset(ref, 1, u), true, true
		}

		if i+2 >= len(tokens) {
			continue
		}
		u, isUnit := lookupUnit(tokens[i+2])
		if !isUnit {
			continue
		}

		n, valid := parseCount(next)
		if !valid || n <= 0 || int64(n) > int64(maxOffset/u.length()) {
			return time.Time{}, true, false
		}
		return applyOffset(ref, n, u), true, true
	}
	return time.Time{}, false, false
}

func (u unit) length() time.Duration {
	switch u {
	case unitMinute:
		return time.Minute
	case unitHour:
		return time.Hour
	case unitWeek:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func applyOffset(ref time.Time, n int, u unit) time.Time {
	switch u {
	case unitMinute:
		return ref.Add(time.Duration(n) * time.Minute)
	case unitHour:
		return ref.Add(time.Duration(n) * time.Hour)
	case unitWeek:
		return ref.AddDate(0, 0, 7*n)
	default:
		return ref.AddDate(0, 0, n)
	}
}

func parseCount(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupUnit(tok string) (unit, bool) {
	for _, f := range unitForms {
		if strings.HasPrefix(tok, f.prefix) {
			return f.unit, true
		}
	}
	return 0, false
}

func extractClock(tokens []string) (*clock, []string) {
	for i, tok := range tokens {
		m := clockPattern.FindStringSubmatch(tok)
		if m == nil {
			continue
		}

		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h > 23 || min > 59 {
			continue
		}

		rest := make([]string, 0, len(tokens)-1)
		rest = append(rest, tokens[:i]...)
		rest = append(rest, tokens[i+1:]...)
		return &clock{hour: h, minute: min}, rest
	}
	return nil, tokens
}

// tokenize lowercases the phrase, folds ё to е, and splits on anything that is
// not a letter, digit, or one of the characters significant to clock times and
// signed numbers.
func tokenize(phrase string) []string {
	phrase = strings.ReplaceAll(strings.ToLower(phrase), "ё", "е")

	fields := strings.FieldsFunc(phrase, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':' && r != '.' && r != '-' && r != '/'
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimLeft(strings.TrimRight(f, ".-:"), ".:")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// hasAny reports whether any marker occurs in tokens as a whole-word sequence.
func hasAny(tokens []string, markers []string) bool {
	joined := " " + strings.Join(tokens, " ") + " "
	for _, m := range markers {
		if strings.Contains(joined, " "+m+" ") {
			return true
		}
	}
	return false
}
