// Package permissions parses file modes written in configuration files.
package permissions

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// ParseOctal parses "755", "0755" or "0o755". An empty string yields
// fallback.
func ParseOctal(s string, fallback fs.FileMode) (fs.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0o"), "0")
	if digits == "" {
		return 0, nil
	}
	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return fallback, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o7777 {
		return fallback, fmt.Errorf("permission %q out of range", s)
	}
	return fs.FileMode(val).Perm() | specialBits(val), nil
}

func specialBits(val uint64) fs.FileMode {
	var m fs.FileMode
	if val&0o4000 != 0 {
		m |= fs.ModeSetuid
	}
	if val&0o2000 != 0 {
		m |= fs.ModeSetgid
	}
	if val&0o1000 != 0 {
		m |= fs.ModeSticky
	}
	return m
}

// Format renders a mode's permission bits as "0755".
func Format(m fs.FileMode) string {
	return fmt.Sprintf("%04o", uint32(m.Perm()))
}
