package jvm

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	versionRe = regexp.MustCompile(`version\s+"([^"]+)"`)
	digitsRe  = regexp.MustCompile(`\d+`)
)

// ValidateJavaVersion runs `java -version` and reports whether the runtime
// is at least the required major release.
func ValidateJavaVersion(javaPath string, required int) (bool, error) {
	out, err := exec.Command(javaPath, "-version").CombinedOutput()
	if err != nil {
		return false, err
	}
	major, ok := ParseJavaMajor(string(out))
	if !ok {
		return false, nil
	}
	return major >= required, nil
}

// ParseJavaMajor extracts the major release from `java -version` output.
// Both the legacy "1.8.0_392" and the modern "21.0.2" forms are understood.
func ParseJavaMajor(output string) (int, bool) {
	m := versionRe.FindStringSubmatch(output)
	if len(m) < 2 {
		return 0, false
	}

	parts := strings.Split(m[1], ".")
	segment := parts[0]
	if parts[0] == "1" && len(parts) > 1 {
		segment = parts[1]
	}

	num := digitsRe.FindString(segment)
	if num == "" {
		return 0, false
	}
	major, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return major, true
}
