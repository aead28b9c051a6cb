// Package security implements the URL admission layer that guards media
// downloads against SSRF: an immutable host allow-list built at startup
// and a pure validator that renders an allow/deny verdict per URL.
package security

import (
	"sort"
	"strings"
)

// Built-in destinations audio is served from. Operators extend these via
// config, never at runtime.
var (
	defaultDomains = []string{
		"supabase.co",
		"supabase.in",
		"supabase.com",
		"files.lawia.app",
	}

	defaultSuffixes = []string{
		".supabase.co",
		".supabase.in",
		".supabase.com",
		".backblazeb2.com",
	}
)

// AllowList is the registry of permitted download hosts. It is built once
// at process start and never mutated; membership checks are case-insensitive.
type AllowList struct {
	domains  map[string]struct{}
	suffixes []string
}

// NewAllowList merges the built-in defaults with operator-supplied
// comma-separated overrides. Entries are trimmed, lowercased and
// deduplicated; ordering is normalized so startup logs are reproducible.
func NewAllowList(extraDomains, extraSuffixes string) *AllowList {
	domains := make(map[string]struct{})
	for _, d := range defaultDomains {
		domains[d] = struct{}{}
	}
	for _, d := range parseCSV(extraDomains) {
		domains[d] = struct{}{}
	}

	suffixSet := make(map[string]struct{})
	for _, s := range defaultSuffixes {
		suffixSet[s] = struct{}{}
	}
	for _, s := range parseCSV(extraSuffixes) {
		suffixSet[s] = struct{}{}
	}

	suffixes := make([]string, 0, len(suffixSet))
	for s := range suffixSet {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	return &AllowList{
		domains:  domains,
		suffixes: suffixes,
	}
}

// ContainsDomain reports whether host exactly matches an allow-listed
// hostname. host must already be lowercased.
func (a *AllowList) ContainsDomain(host string) bool {
	_, ok := a.domains[host]
	return ok
}

// MatchSuffix returns the first allow-listed suffix that host ends with.
// host must already be lowercased.
func (a *AllowList) MatchSuffix(host string) (string, bool) {
	for _, s := range a.suffixes {
		if strings.HasSuffix(host, s) {
			return s, true
		}
	}
	return "", false
}

// Domains returns the sorted exact-hostname entries, for startup logging.
func (a *AllowList) Domains() []string {
	out := make([]string, 0, len(a.domains))
	for d := range a.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Suffixes returns the sorted suffix entries, for startup logging.
func (a *AllowList) Suffixes() []string {
	out := make([]string, len(a.suffixes))
	copy(out, a.suffixes)
	return out
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
