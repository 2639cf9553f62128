package domain

import (
	"slices"
	"testing"
)

func TestMeanRating(t *testing.T) {
	if avg := MeanRating(nil); avg.Valid || avg.String() != "N/A" {
		t.Fatalf("empty ratings should be unavailable, got %+v", avg)
	}
	cases := []struct {
		ratings []int
		want    string
	}{
		{[]int{5, 4}, "4.5"},
		{[]int{4, 4, 5}, "4.3"},
		{[]int{5, 4, 4, 4}, "4.3"},
		{[]int{1}, "1.0"},
	}
	for _, tc := range cases {
		if got := MeanRating(tc.ratings).String(); got != tc.want {
			t.Errorf("MeanRating(%v) = %s, want %s", tc.ratings, got, tc.want)
		}
	}
}

func TestRatio(t *testing.T) {
	if r := NewRatio(3, 0); r.Valid || r.String() != "N/A" {
		t.Fatalf("zero denominator should be unavailable, got %+v", r)
	}
	if got := NewRatio(2, 3).String(); got != "67%" {
		t.Fatalf("expected 67%%, got %s", got)
	}
	if got := NewRatio(1, 8).Percent(); got != 13 {
		t.Fatalf("12.5 should round half up to 13, got %d", got)
	}
}

func TestFilters(t *testing.T) {
	advisors := []Advisor{
		{ID: 1, Name: "Carlos Méndez", Email: "carlos@empresa.com", Phone: "3001234567", Zone: "Centro", Status: StatusActive},
		{ID: 2, Name: "Ana Rodríguez", Email: "ana@empresa.com", Phone: "3109876543", Zone: "Norte", Status: StatusInactive},
	}
	ids := func(f AdvisorFilter) []int64 {
		var out []int64
		for a := range Filter(slices.Values(advisors), f.Match) {
			out = append(out, a.ID)
		}
		return out
	}
	if got := ids(AdvisorFilter{Search: "CARLOS"}); !slices.Equal(got, []int64{1}) {
		t.Fatalf("case-insensitive name search failed: %v", got)
	}
	if got := ids(AdvisorFilter{Search: "98765"}); !slices.Equal(got, []int64{2}) {
		t.Fatalf("phone substring search failed: %v", got)
	}
	if got := ids(AdvisorFilter{Zone: "norte"}); !slices.Equal(got, []int64{2}) {
		t.Fatalf("zone filter failed: %v", got)
	}
	if got := ids(AdvisorFilter{Status: StatusActive}); !slices.Equal(got, []int64{1}) {
		t.Fatalf("status filter failed: %v", got)
	}
	if got := ids(AdvisorFilter{}); len(got) != 2 {
		t.Fatalf("zero filter should match all, got %v", got)
	}

	c := Client{Name: "Distribuidora Andina", TaxID: "800987654", Type: ClientDistributor, Zone: "Norte", Status: StatusActive}
	if !(ClientFilter{Search: "9876"}).Match(c) || (ClientFilter{Type: ClientRetailer}).Match(c) {
		t.Fatalf("client filter mismatch")
	}

	r := Route{AdvisorID: 1, Date: "2024-01-10", Zone: "Centro", Status: RouteCompleted}
	if !(RouteFilter{AdvisorID: 1, Date: "2024-01-10", Zone: "CENTRO"}).Match(r) || (RouteFilter{Status: RoutePlanned}).Match(r) {
		t.Fatalf("route filter mismatch")
	}

	s := Survey{RouteID: 5, ClientID: 6}
	if !(SurveyFilter{RouteID: 5}).Match(s) || (SurveyFilter{ClientID: 7}).Match(s) {
		t.Fatalf("survey filter mismatch")
	}
}

func TestRouteKilometres(t *testing.T) {
	start, end := int64(1200), int64(1260)
	r := Route{KmStart: &start, KmEnd: &end}
	if r.Kilometres() != 60 {
		t.Fatalf("expected 60 km, got %d", r.Kilometres())
	}
	if (Route{KmStart: &start}).Kilometres() != 0 {
		t.Fatalf("missing reading should give 0 km")
	}
}
