package route

import (
	"errors"
	"testing"
)

func testTable() Table {
	return NewTable(map[string]string{
		"USA":           "sessions-usa",
		"International": "sessions-intl",
	})
}

func TestClassify(t *testing.T) {
	cases := map[string]Tag{
		"USA":    TagUSA,
		"France": TagInternational,
		"usa":    TagInternational, // exact match only
		"":       TagInternational,
		"Narnia": TagInternational,
	}
	for country, want := range cases {
		if got := Classify(country); got != want {
			t.Fatalf("Classify(%q)=%q want %q", country, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	tbl := testTable()
	got, err := tbl.Resolve("USA")
	if err != nil || got != "sessions-usa" {
		t.Fatalf("Resolve(USA)=%q, %v", got, err)
	}
	got, err = tbl.Resolve("France")
	if err != nil || got != "sessions-intl" {
		t.Fatalf("Resolve(France)=%q, %v", got, err)
	}
}

func TestValidateMissingTag(t *testing.T) {
	tbl := NewTable(map[string]string{"USA": "sessions-usa"})
	err := tbl.Validate()
	var mre *MissingRouteError
	if !errors.As(err, &mre) {
		t.Fatalf("want MissingRouteError, got %v", err)
	}
	if mre.Tag != TagInternational {
		t.Fatalf("wrong tag: %q", mre.Tag)
	}

	if err := testTable().Validate(); err != nil {
		t.Fatalf("complete table should validate: %v", err)
	}
}

func TestDestinationsDeduped(t *testing.T) {
	tbl := NewTable(map[string]string{
		"USA":           "everything",
		"International": "everything",
	})
	if got := tbl.Destinations(); len(got) != 1 || got[0] != "everything" {
		t.Fatalf("Destinations=%v", got)
	}
}
