package feature

import "time"

// Frame is an ordered, column-aligned feature matrix with one target value
// per row. Every row carries the same feature set in the same order, and row
// i was derived using only observations at or before Dates[i].
type Frame struct {
	Columns    []string    `json:"columns"`
	Dates      []time.Time `json:"dates"`
	Rows       [][]float64 `json:"rows"`
	Target     []float64   `json:"target"`
	TargetName string      `json:"target_name"`
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Dates)
}

// ColumnIndex returns the position of a feature column, -1 when absent.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Slice returns a view of rows [lo, hi). The backing arrays are shared;
// callers that hand slices to concurrent workers should Clone them.
func (f *Frame) Slice(lo, hi int) *Frame {
	return &Frame{
		Columns:    f.Columns,
		Dates:      f.Dates[lo:hi],
		Rows:       f.Rows[lo:hi],
		Target:     f.Target[lo:hi],
		TargetName: f.TargetName,
	}
}

// Clone returns a deep copy, giving a worker its own mutable-safe snapshot.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Columns:    append([]string(nil), f.Columns...),
		Dates:      append([]time.Time(nil), f.Dates...),
		Rows:       make([][]float64, len(f.Rows)),
		Target:     append([]float64(nil), f.Target...),
		TargetName: f.TargetName,
	}
	for i, row := range f.Rows {
		out.Rows[i] = append([]float64(nil), row...)
	}
	return out
}
