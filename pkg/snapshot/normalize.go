package snapshot

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts covers the formats seen across platform exports.
// Unparseable values coerce to null rather than failing the load.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp parses a raw timestamp string leniently. The boolean is
// false when no layout matched (a tolerated data-quality condition).
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MetadataPoints extracts the point value from a product's embedded
// metadata field. The field is nominally JSON but some exports carry
// single-quoted pseudo-JSON, so a failed parse retries with quotes
// swapped. Anything unusable yields 0.
func MetadataPoints(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		fixed := strings.ReplaceAll(raw, "'", `"`)
		if err := json.Unmarshal([]byte(fixed), &meta); err != nil {
			return 0
		}
	}
	pts, ok := meta["points"]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(pts, &f); err == nil {
		return f
	}
	// Numeric strings count too: {"points": "150"}.
	var s string
	if err := json.Unmarshal(pts, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// ageBucketEdges and ageBucketLabels are the fixed dashboard cohorts.
// Edges are half-open on the right: age 24 lands in "25-34".
var (
	ageBucketEdges  = []int{18, 24, 34, 44, 54, 64, 100}
	ageBucketLabels = []string{"<18", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
)

// AgeBucket derives the demographic cohort from a birth date as of now.
// A null birth date or an out-of-range age yields the empty bucket.
func AgeBucket(birth, now time.Time) string {
	if birth.IsZero() {
		return ""
	}
	age := now.Year() - birth.Year()
	if age < 0 || age >= 100 {
		return ""
	}
	for i, edge := range ageBucketEdges {
		if age < edge {
			return ageBucketLabels[i]
		}
	}
	return ""
}

// NormalizeStatus canonicalizes a free-text status once, at the ingestion
// boundary. Downstream filters compare against the closed lowercase set.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
