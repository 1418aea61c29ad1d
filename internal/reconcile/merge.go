package reconcile

import (
	"errors"
	"fmt"
	"time"

	"energy-reconcile/internal/dataset"
)

// ErrDoubleCounted is returned when an (entity, date, fuel) key appears in
// both the EU and non-EU partitions.
var ErrDoubleCounted = errors.New("reconcile: entity double-counted across partitions")

type rowKey struct {
	entity string
	date   time.Time
	fuel   dataset.Fuel
}

// Merge unions the EU and non-EU outputs into one long-format table keyed by
// (entity, date, fuel). Every key present in either input appears exactly
// once; overlap between the partitions is a hard error.
func Merge(eu, nonEU []Row) ([]Row, error) {
	seen := make(map[rowKey]struct{}, len(eu)+len(nonEU))
	merged := make([]Row, 0, len(eu)+len(nonEU))

	for _, part := range [][]Row{eu, nonEU} {
		for _, row := range part {
			key := rowKey{row.Entity, row.Date, row.Fuel}
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: %s %s %s", ErrDoubleCounted, row.Entity, row.Date.Format(monthLayout), row.Fuel)
			}
			seen[key] = struct{}{}
			merged = append(merged, row)
		}
	}

	sortRows(merged)
	return merged, nil
}
