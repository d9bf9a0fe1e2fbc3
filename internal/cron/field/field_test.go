package field

import (
	"reflect"
	"testing"
)

func TestParseWildcard(t *testing.T) {
	s, err := Parse("*", 0, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s, Set{0, 1, 2, 3, 4}) {
		t.Fatalf("got %v", s)
	}
}

func TestParseStep(t *testing.T) {
	s, err := Parse("*/15", 0, 59, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Set{0, 15, 30, 45}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %v, want %v", s, want)
	}
}

func TestParseRangeWithStep(t *testing.T) {
	s, err := Parse("1-10/3", 0, 59, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Set{1, 4, 7, 10}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %v, want %v", s, want)
	}
}

func TestParseRangeWraparound(t *testing.T) {
	s, err := Parse("5-1", 0, 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Set{0, 1, 5, 6, 7}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %v, want %v", s, want)
	}
}

func TestParseNamesCaseInsensitive(t *testing.T) {
	s, err := Parse("mon-fri", 0, 7, DayOfWeekNames())
	if err != nil {
		t.Fatal(err)
	}
	want := Set{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %v, want %v", s, want)
	}
}

func TestParseDayOfWeekSevenAliasesSunday(t *testing.T) {
	s, err := Parse("7", 0, 7, DayOfWeekNames())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s, Set{0}) {
		t.Fatalf("got %v, want [0]", s)
	}
}

func TestParseOutOfRangeRejected(t *testing.T) {
	if _, err := Parse("60", 0, 59, nil); err == nil {
		t.Fatal("expected error for out-of-range value")
	}
}

func TestParseCommaList(t *testing.T) {
	s, err := Parse("1,3,5", 0, 59, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s, Set{1, 3, 5}) {
		t.Fatalf("got %v", s)
	}
}

func TestParseInvalidNameRejected(t *testing.T) {
	if _, err := Parse("BOGUS", 0, 59, DayOfWeekNames()); err == nil {
		t.Fatal("expected error for unrecognized name")
	}
}
