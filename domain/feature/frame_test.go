package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(n int) *Frame {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &Frame{Columns: []string{"lag_1", "lag_2"}, TargetName: "Tavg"}
	for i := 0; i < n; i++ {
		f.Dates = append(f.Dates, start.AddDate(0, 0, i))
		f.Rows = append(f.Rows, []float64{float64(i), float64(i) * 2})
		f.Target = append(f.Target, float64(i)+0.5)
	}
	return f
}

func TestFrameSliceIsAView(t *testing.T) {
	f := sampleFrame(10)
	s := f.Slice(3, 7)

	require.Equal(t, 4, s.Len())
	assert.Equal(t, f.Dates[3], s.Dates[0])
	assert.Equal(t, f.Target[6], s.Target[3])

	// Views share backing arrays with the parent.
	s.Rows[0][0] = -1
	assert.Equal(t, -1.0, f.Rows[3][0])
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f := sampleFrame(5)
	c := f.Clone()

	c.Rows[0][0] = -1
	c.Target[0] = -1
	assert.Equal(t, 0.0, f.Rows[0][0])
	assert.Equal(t, 0.5, f.Target[0])
	assert.Equal(t, f.Len(), c.Len())
}

func TestColumnIndex(t *testing.T) {
	f := sampleFrame(3)
	assert.Equal(t, 1, f.ColumnIndex("lag_2"))
	assert.Equal(t, -1, f.ColumnIndex("lag_9"))
}

func TestMaxHistory(t *testing.T) {
	cfg := Config{Lags: []int{1, 2, 7}}
	assert.Equal(t, 7, cfg.MaxHistory())

	cfg.Windows = []int{14}
	assert.Equal(t, 15, cfg.MaxHistory())
}
