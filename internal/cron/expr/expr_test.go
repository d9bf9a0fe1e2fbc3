package expr

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, spec string) *Expression {
	t.Helper()
	e, err := Parse(spec)
	if err != nil {
		t.Fatalf("Parse(%q): %v", spec, err)
	}
	return e
}

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestNextFireEveryFifteenMinutesAtMidnight(t *testing.T) {
	e := mustParse(t, "*/15 0 * * *")

	got, err := e.NextFire(utc(2026, 1, 1, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := utc(2026, 1, 1, 0, 15)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextFireRoundsUpToNextMinute(t *testing.T) {
	e := mustParse(t, "* * * * *")
	from := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	got, err := e.NextFire(from)
	if err != nil {
		t.Fatal(err)
	}
	want := utc(2026, 1, 1, 0, 1)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextFireDOMDOWOrRule(t *testing.T) {
	// "0 12 1 * MON" matches noon on the 1st of the month OR any Monday.
	// 2026-01-01 is a Thursday, so the nearest Monday on/after 2026-01-27 is
	// 2026-02-02, but 2026-02-01 (a Sunday) matches first via day-of-month.
	e := mustParse(t, "0 12 1 * MON")

	got, err := e.NextFire(utc(2026, 1, 27, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := utc(2026, 2, 1, 12, 0)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Weekday() != time.Sunday {
		t.Fatalf("expected the day-of-month branch to win on a non-Monday, got weekday %v", got.Weekday())
	}

	// From just after that, the next match is the following Monday.
	got2, err := e.NextFire(want.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if got2.Weekday() != time.Monday || got2.Hour() != 12 || got2.Minute() != 0 {
		t.Fatalf("expected next Monday noon, got %v", got2)
	}
}

func TestNextFireWildcardBothDOMAndDOW(t *testing.T) {
	e := mustParse(t, "30 6 * * *")
	got, err := e.NextFire(utc(2026, 3, 5, 6, 30))
	if err != nil {
		t.Fatal(err)
	}
	// from is exactly the fire time. With from's seconds==0 no rounding
	// happens, so the search starts at from itself and it matches immediately.
	want := utc(2026, 3, 5, 6, 30)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextFireMonthMismatchSkipsAhead(t *testing.T) {
	e := mustParse(t, "0 0 1 6 *") // June 1st, midnight
	got, err := e.NextFire(utc(2026, 1, 1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := utc(2026, 6, 1, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextFireInvalidExpressionFieldCount(t *testing.T) {
	if _, err := Parse("* * * *"); err == nil {
		t.Fatal("expected error for 4-field expression")
	}
}
