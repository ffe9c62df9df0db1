// Package filter decides record inclusion from tag rules and cleans
// nuisance tags for display.
package filter

import "strings"

// Mode values for Rules.
const (
	ModeAny = "any"
	ModeAll = "all"
)

// Rules configures tag-based inclusion and display cleanup.
type Rules struct {
	Enabled  bool
	Mode     string
	Required []string
	Excluded []string
}

// Include reports whether a record with the given tags passes the filter.
// Matching is a case-insensitive substring test of a required tag against a
// record tag. Records with zero tags are always excluded while filtering is
// enabled.
func (r Rules) Include(tags []string) bool {
	if !r.Enabled || len(r.Required) == 0 {
		return true
	}
	if len(tags) == 0 {
		return false
	}

	if r.Mode == ModeAll {
		for _, required := range r.Required {
			if !matchesAny(required, tags) {
				return false
			}
		}
		return true
	}

	for _, required := range r.Required {
		if matchesAny(required, tags) {
			return true
		}
	}
	return false
}

// Clean removes nuisance tags from the list for presentation. It runs after
// the inclusion decision and never affects it. The substring match goes in
// either direction so "makerspace project" strips both "Makerspace Project"
// and the broader "project".
func (r Rules) Clean(tags []string) []string {
	if len(r.Excluded) == 0 {
		return tags
	}

	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !r.isExcluded(tag) {
			out = append(out, tag)
		}
	}
	return out
}

func (r Rules) isExcluded(tag string) bool {
	lowered := strings.ToLower(strings.TrimSpace(tag))
	for _, excluded := range r.Excluded {
		excludedLowered := strings.ToLower(strings.TrimSpace(excluded))
		if excludedLowered == "" {
			continue
		}
		if strings.Contains(lowered, excludedLowered) || strings.Contains(excludedLowered, lowered) {
			return true
		}
	}
	return false
}

func matchesAny(required string, tags []string) bool {
	requiredLowered := strings.ToLower(strings.TrimSpace(required))
	if requiredLowered == "" {
		return false
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), requiredLowered) {
			return true
		}
	}
	return false
}
