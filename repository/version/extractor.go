package version

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// 1.8.0_402, jdk1.8.0_402: pre-9 releases carry the feature in the second field
	legacyDotted = regexp.MustCompile(`^1\.(\d+)`)
	// 17.0.11+9, 21.0.6_7, 11.0.29.7.1
	dottedMajor = regexp.MustCompile(`^(\d+)[.+_]`)
	// 8u442b06, 8u442-b06
	legacyMajor = regexp.MustCompile(`^(\d+)u\d`)
)

// ExtractMajor extracts the major (feature) version from a version or
// release name.
//
// Examples:
//   - "17.0.11+9" → "17"
//   - "jdk-17.0.11+9" → "17"
//   - "jdk8u442-b06" → "8"
//   - "jdk1.8.0_402" → "8"
//   - "21.0.6_7" → "21"
//   - "21" → "" (a bare number is not a version string, see ParseFeature)
func ExtractMajor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}

	// Drop a distribution prefix such as "jdk-", "jre-" or "jdk"
	clean := strings.TrimLeft(v, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_")

	for _, re := range []*regexp.Regexp{legacyDotted, dottedMajor, legacyMajor} {
		if m := re.FindStringSubmatch(clean); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// ParseFeature returns the feature version of v as an integer. Unlike
// ExtractMajor it accepts a bare number ("17").
func ParseFeature(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, n > 0
	}
	major := ExtractMajor(v)
	if major == "" {
		return 0, false
	}
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalize turns separators into dots and drops non-numeric prefixes:
// "jdk-17.0.11+9" → ["17","0","11","9"], "8u442-b06" → ["8","442","06"]
func normalize(v string) []string {
	v = strings.TrimLeft(v, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_")
	v = strings.NewReplacer("u", ".", "_", ".", "+", ".", "-b", ".", "-", ".", "b", ".").Replace(v)
	parts := strings.Split(v, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CompareVersions returns true if v1 is older than v2.
//
// Examples:
//   - CompareVersions("17.0.10+7", "17.0.11+9") → true
//   - CompareVersions("8u442b06", "8u432b06") → false
//   - CompareVersions("21.0.6", "21.0.6_7") → true
func CompareVersions(v1, v2 string) bool {
	p1, p2 := normalize(v1), normalize(v2)

	n := len(p1)
	if len(p2) < n {
		n = len(p2)
	}

	for i := 0; i < n; i++ {
		a, errA := strconv.Atoi(p1[i])
		b, errB := strconv.Atoi(p2[i])
		if errA != nil || errB != nil {
			if p1[i] != p2[i] {
				return p1[i] < p2[i]
			}
			continue
		}
		if a != b {
			return a < b
		}
	}

	// Equal prefix: the shorter version is older
	return len(p1) < len(p2)
}
