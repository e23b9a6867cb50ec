package utils

import (
	"fmt"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

var unitMultipliers = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// FormatBytes renders a byte count using base-1024 units with two decimal
// places. Values of a petabyte or more stay in PB.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 B"
	}

	value := float64(n)
	for _, unit := range byteUnits {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}

	return fmt.Sprintf("%.2f PB", value)
}

// UnitMultiplier maps a size unit (B through TB, any case) to its base-1024
// byte multiplier.
func UnitMultiplier(unit string) (int64, bool) {
	m, ok := unitMultipliers[strings.ToUpper(unit)]
	return m, ok
}
