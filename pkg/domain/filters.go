package domain

import (
	"iter"
	"strings"
)

// Match reports whether the advisor satisfies the filter. Search matches the
// name or email case-insensitively, or the phone as a substring.
func (f AdvisorFilter) Match(a Advisor) bool {
	if f.Zone != "" && !strings.EqualFold(a.Zone, f.Zone) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(a.Name), term) ||
		strings.Contains(strings.ToLower(a.Email), term) ||
		strings.Contains(a.Phone, f.Search)
}

// Match reports whether the client satisfies the filter. Search matches the
// name case-insensitively or the tax id as a substring.
func (f ClientFilter) Match(c Client) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Zone != "" && !strings.EqualFold(c.Zone, f.Zone) {
		return false
	}
	if f.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) ||
		strings.Contains(c.TaxID, f.Search)
}

// Match reports whether the route satisfies the filter.
func (f RouteFilter) Match(r Route) bool {
	if f.AdvisorID != 0 && r.AdvisorID != f.AdvisorID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.Zone != "" && !strings.EqualFold(r.Zone, f.Zone) {
		return false
	}
	return true
}

// Match reports whether the survey satisfies the filter.
func (f SurveyFilter) Match(s Survey) bool {
	if f.RouteID != 0 && s.RouteID != f.RouteID {
		return false
	}
	if f.ClientID != 0 && s.ClientID != f.ClientID {
		return false
	}
	return true
}

// Filter wraps seq so it only yields values accepted by match.
func Filter[T any](seq iter.Seq[T], match func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if match != nil && !match(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
