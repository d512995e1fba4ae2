package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ShadeColor shifts every RGB channel of a #rrggbb color by amount, clamped to
// [0, 255]. Negative amounts darken. The result is uppercase with a leading '#'.
// Malformed colors are returned unchanged.
func ShadeColor(hex string, amount int) string {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return hex
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(r+amount), clamp(g+amount), clamp(b+amount))
}

func parseHex(hex string) (r, g, b int, err error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q", hex)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}

func clamp(v int) int {
	return min(255, max(0, v))
}

// ValidColor reports whether s is a #rrggbb color.
func ValidColor(s string) bool {
	_, _, _, err := parseHex(s)
	return err == nil
}
