package core

import (
	"fmt"
	"strings"
	"time"
)

// Partitions lists the month tabs of the ledger in calendar order.
var Partitions = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// PartitionFor returns the partition identifier holding records dated t.
func PartitionFor(t time.Time) string {
	return Partitions[t.Month()-1]
}

// MonthAbbr returns the three-letter abbreviation for month (1-12), or "" when out of range.
func MonthAbbr(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return Partitions[month-1]
}

// ParsePartition resolves id to its canonical identifier and month number.
// Matching ignores case and surrounding spaces ("jan" -> "Jan").
func ParsePartition(id string) (string, int, error) {
	id = strings.TrimSpace(id)
	for i, p := range Partitions {
		if strings.EqualFold(p, id) {
			return p, i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %q", ErrPartitionNotFound, id)
}
