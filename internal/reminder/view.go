package reminder

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortStatus SortOrder = "status"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRecent, "recentes":
		return SortRecent, nil
	case SortStatus:
		return SortStatus, nil
	}
	return "", fmt.Errorf("invalid sort order %q: must be recent or status", s)
}

// ViewOptions controls how a collection is presented.
type ViewOptions struct {
	ShowCompleted bool
	Sort          SortOrder
}

func DefaultViewOptions() ViewOptions {
	return ViewOptions{ShowCompleted: true, Sort: SortRecent}
}

// Apply filters and sorts a copy of items. The input is never modified.
func Apply(items []*Reminder, opts ViewOptions) []*Reminder {
	out := make([]*Reminder, 0, len(items))
	for _, r := range items {
		if !opts.ShowCompleted && r.Completed {
			continue
		}
		out = append(out, r)
	}

	newestFirst := func(a, b *Reminder) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}

	if opts.Sort == SortStatus {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Completed != out[j].Completed {
				return !out[i].Completed
			}
			return newestFirst(out[i], out[j])
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return newestFirst(out[i], out[j])
	})
	return out
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

func ComputeStats(items []*Reminder) Stats {
	s := Stats{Total: len(items)}
	for _, r := range items {
		if r.Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// FormatDate renders a timestamp the way the list shows it (dd/mm/yyyy HH:MM).
func FormatDate(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}
