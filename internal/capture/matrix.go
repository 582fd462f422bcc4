package capture

import (
	"fmt"

	"jollyseber/internal/model"
)

// Matrix is an immutable M x T binary capture matrix.
type Matrix struct {
	rows      [][]uint8
	occasions int
}

// NewMatrix validates and copies rows. Every row must have the same length
// and contain only 0 or 1.
func NewMatrix(rows [][]int) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, fmt.Errorf("%w: capture matrix has no rows", model.ErrShapeMismatch)
	}
	occasions := len(rows[0])
	if occasions == 0 {
		return Matrix{}, fmt.Errorf("%w: capture matrix has no occasions", model.ErrShapeMismatch)
	}

	out := make([][]uint8, len(rows))
	for i, row := range rows {
		if len(row) != occasions {
			return Matrix{}, fmt.Errorf("%w: row %d has %d occasions, want %d", model.ErrShapeMismatch, i, len(row), occasions)
		}
		out[i] = make([]uint8, occasions)
		for t, v := range row {
			switch v {
			case 0, 1:
				out[i][t] = uint8(v)
			default:
				return Matrix{}, fmt.Errorf("capture value %d at row %d occasion %d is not binary", v, i, t+1)
			}
		}
	}
	return Matrix{rows: out, occasions: occasions}, nil
}

// Augment pads rows with extra all-zero pseudo-individuals.
func Augment(rows [][]int, extra int) ([][]int, error) {
	if extra < 0 {
		return nil, fmt.Errorf("augmentation size must be >= 0, got %d", extra)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: cannot augment an empty capture matrix", model.ErrShapeMismatch)
	}
	occasions := len(rows[0])
	out := make([][]int, 0, len(rows)+extra)
	for _, row := range rows {
		out = append(out, append([]int(nil), row...))
	}
	for i := 0; i < extra; i++ {
		out = append(out, make([]int, occasions))
	}
	return out, nil
}

// Individuals returns M.
func (m Matrix) Individuals() int {
	return len(m.rows)
}

// Occasions returns T.
func (m Matrix) Occasions() int {
	return m.occasions
}

// Captured reports whether individual i was captured at zero-based occasion t.
func (m Matrix) Captured(i, t int) bool {
	return m.rows[i][t] == 1
}

// Row returns a copy of individual i's history.
func (m Matrix) Row(i int) []int {
	out := make([]int, m.occasions)
	for t, v := range m.rows[i] {
		out[t] = int(v)
	}
	return out
}

// Observed counts individuals with at least one capture.
func (m Matrix) Observed() int {
	n := 0
	for i := range m.rows {
		for _, v := range m.rows[i] {
			if v == 1 {
				n++
				break
			}
		}
	}
	return n
}
