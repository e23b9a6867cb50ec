package backup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/TanZiPeng/mcserver/internal/utils"
)

// TransferStats aggregates what the sync tool reported moving.
type TransferStats struct {
	Files int64
	Bytes int64
}

var (
	transferredFilesRe = regexp.MustCompile(`Transferred:\s*(\d+)`)
	transferredSizeRe  = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(B|KB|MB|GB|TB)`)
)

// ParseTransferStats extracts file and byte counts from the first
// "Transferred:" summary line in the tool output. Each count independently
// degrades to zero when its pattern is absent; parsing never fails a job.
func ParseTransferStats(output string) TransferStats {
	var stats TransferStats

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Transferred:") {
			continue
		}

		if m := transferredFilesRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				stats.Files = n
			}
		}

		if m := transferredSizeRe.FindStringSubmatch(line); m != nil {
			if value, err := strconv.ParseFloat(m[1], 64); err == nil {
				if mult, ok := utils.UnitMultiplier(m[2]); ok {
					stats.Bytes = int64(value * float64(mult))
				}
			}
		}

		break
	}

	return stats
}

// Add accumulates another sample into s.
func (s *TransferStats) Add(other TransferStats) {
	s.Files += other.Files
	s.Bytes += other.Bytes
}
