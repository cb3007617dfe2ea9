package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []*Reminder) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.ID)
	}
	return out
}

func viewFixture() []*Reminder {
	a := New("a", "A", t0.Add(3*time.Hour))
	b := New("b", "B", t0.Add(2*time.Hour))
	b.SetCompleted(true, t0.Add(4*time.Hour))
	c := New("c", "C", t0.Add(1*time.Hour))
	d := New("d", "D", t0.Add(5*time.Hour))
	d.SetCompleted(true, t0.Add(6*time.Hour))
	return []*Reminder{c, a, d, b}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		opts ViewOptions
		want []string
	}{
		{"recent with completed", ViewOptions{ShowCompleted: true, Sort: SortRecent}, []string{"d", "a", "b", "c"}},
		{"recent without completed", ViewOptions{ShowCompleted: false, Sort: SortRecent}, []string{"a", "c"}},
		{"status with completed", ViewOptions{ShowCompleted: true, Sort: SortStatus}, []string{"a", "c", "d", "b"}},
		{"status without completed", ViewOptions{ShowCompleted: false, Sort: SortStatus}, []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := viewFixture()
			got := Apply(items, tt.opts)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []string{"c", "a", "d", "b"}, ids(items), "input reordered")
		})
	}
}

func TestApply_StatusScenario(t *testing.T) {
	// Incomplete items first, newest first inside each group.
	older := New("old-open", "Old open", t0)
	newer := New("new-done", "New done", t0.Add(time.Hour))
	newer.SetCompleted(true, t0.Add(2*time.Hour))

	got := Apply([]*Reminder{newer, older}, ViewOptions{ShowCompleted: true, Sort: SortStatus})
	assert.Equal(t, []string{"old-open", "new-done"}, ids(got))

	got = Apply([]*Reminder{older, newer}, DefaultViewOptions())
	assert.Equal(t, []string{"new-done", "old-open"}, ids(got))
}

func TestParseSortOrder(t *testing.T) {
	for in, want := range map[string]SortOrder{
		"":         SortRecent,
		"recent":   SortRecent,
		"recentes": SortRecent,
		" Status ": SortStatus,
	} {
		got, err := ParseSortOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSortOrder("alpha")
	assert.Error(t, err)
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))
	assert.Equal(t, Stats{Total: 4, Completed: 2, Percent: 50}, ComputeStats(viewFixture()))

	three := viewFixture()[:3]
	assert.Equal(t, Stats{Total: 3, Completed: 1, Percent: 33}, ComputeStats(three))

	twoOfThree := append(viewFixture()[1:3], viewFixture()[3])
	assert.Equal(t, Stats{Total: 3, Completed: 2, Percent: 67}, ComputeStats(twoOfThree))
}

func TestFormatDate(t *testing.T) {
	local := time.Date(2024, 12, 3, 7, 5, 0, 0, time.Local)
	assert.Equal(t, "03/12/2024 07:05", FormatDate(local))
}
