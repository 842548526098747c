package jvm

import (
	"strconv"
	"strings"
)

const (
	Java8  = 8
	Java17 = 17
	Java21 = 21
)

// RequiredMajor maps a server version to the Java major release it needs.
//
//	major >= 21, or 20.5+ -> 21
//	major >= 17           -> 17
//	anything else         -> 8
//
// Release names in the legacy "1.x.y" scheme are read as "x.y". Any string
// that does not parse falls back to 8.
func RequiredMajor(version string) int {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) > 1 && parts[0] == "1" {
		parts = parts[1:]
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return Java8
	}

	minor := 0
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil || minor < 0 {
			return Java8
		}
	}

	if major >= 21 || (major == 20 && minor >= 5) {
		return Java21
	}
	if major >= 17 {
		return Java17
	}
	return Java8
}
