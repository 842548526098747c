package catalog

import (
	"sort"
	"strconv"
	"strings"
)

type VersionSorter []string

func (s VersionSorter) Len() int {
	return len(s)
}

func (s VersionSorter) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less compares dotted numeric parts. A pre-release ("1.21-pre1") sorts
// before the release it precedes.
func (s VersionSorter) Less(i, j int) bool {
	base1, pre1, _ := strings.Cut(s[i], "-")
	base2, pre2, _ := strings.Cut(s[j], "-")
	if base1 == base2 {
		if pre1 == "" || pre2 == "" {
			return pre1 != "" && pre2 == ""
		}
		return lessPreRelease(pre1, pre2)
	}
	return lessRelease(base1, base2)
}

// lessPreRelease orders "pre7" before "pre10".
func lessPreRelease(p1, p2 string) bool {
	tag1 := strings.TrimRight(p1, "0123456789")
	tag2 := strings.TrimRight(p2, "0123456789")
	if tag1 != tag2 {
		return p1 < p2
	}
	n1, _ := strconv.Atoi(p1[len(tag1):])
	n2, _ := strconv.Atoi(p2[len(tag2):])
	return n1 < n2
}

func lessRelease(v1, v2 string) bool {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for k := 0; k < maxLen; k++ {
		var p1, p2 string
		if k < len(parts1) {
			p1 = parts1[k]
		}
		if k < len(parts2) {
			p2 = parts2[k]
		}

		n1, err1 := strconv.Atoi(p1)
		n2, err2 := strconv.Atoi(p2)

		if err1 == nil && err2 == nil {
			if n1 != n2 {
				return n1 < n2
			}
		} else if p1 != p2 {
			return p1 < p2
		}
	}

	return len(parts1) < len(parts2)
}

// SortNewestFirst orders versions for display. The catalog itself never
// reorders what the upstream index returns.
func SortNewestFirst(versions []string) []string {
	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.Stable(sort.Reverse(VersionSorter(sorted)))
	return sorted
}

// StableVersions drops pre-releases, keeping the input order.
func StableVersions(versions []string) []string {
	stable := make([]string, 0, len(versions))
	for _, v := range versions {
		if !strings.Contains(v, "-") {
			stable = append(stable, v)
		}
	}
	return stable
}

// NewestStable returns the newest release that is not a pre-release.
func NewestStable(versions []string) (string, bool) {
	stable := SortNewestFirst(StableVersions(versions))
	if len(stable) == 0 {
		return "", false
	}
	return stable[0], true
}
