package ingest

import "strings"

// Truncate cuts s to at most n characters. It never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// NormalizeSubdivision prefixes a bare subdivision code with its country
// ("US", "CA" -> "US-CA"). Codes that already carry a "-" pass through. The
// result is nil unless both parts are present.
func NormalizeSubdivision(country, subdivision string) *string {
	if country == "" || subdivision == "" {
		return nil
	}
	if strings.Contains(subdivision, "-") {
		return &subdivision
	}
	s := country + "-" + subdivision
	return &s
}

func truncated(s string, n int) *string {
	if s == "" {
		return nil
	}
	s = Truncate(s, n)
	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
