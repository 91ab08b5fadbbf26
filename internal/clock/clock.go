// Package clock converts between the chat export's play-time tokens
// ("m:ss" or "h:mm:ss") and whole seconds.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts an "m:ss" or "h:mm:ss" token to seconds.
func Parse(token string) (int, error) {
	parts := strings.Split(strings.TrimSpace(token), ":")

	fields := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid clock token %q", token)
		}
		fields = append(fields, v)
	}

	switch len(fields) {
	case 2:
		return fields[0]*60 + fields[1], nil
	case 3:
		return fields[0]*3600 + fields[1]*60 + fields[2], nil
	default:
		return 0, fmt.Errorf("invalid clock token %q", token)
	}
}

// MMSS formats seconds as "m:ss".
func MMSS(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// HMMSS formats seconds as "h:mm:ss".
func HMMSS(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
