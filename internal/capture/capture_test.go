package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jollyseber/internal/model"
)

func TestIndexHistory(t *testing.T) {
	cases := []struct {
		name    string
		history []int
		first   int
		last    int
		seen    bool
	}{
		{name: "all zero", history: []int{0, 0, 0, 0}},
		{name: "single at start", history: []int{1, 0, 0, 0}, first: 1, last: 1, seen: true},
		{name: "single in middle", history: []int{0, 0, 1, 0}, first: 3, last: 3, seen: true},
		{name: "single at end", history: []int{0, 0, 0, 1}, first: 4, last: 4, seen: true},
		{name: "gapped", history: []int{0, 1, 0, 1}, first: 2, last: 4, seen: true},
		{name: "all ones", history: []int{1, 1, 1}, first: 1, last: 3, seen: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx := IndexHistory(tc.history)
			assert.Equal(t, tc.seen, idx.Seen())
			first, ok := idx.First.Get()
			assert.Equal(t, tc.seen, ok)
			assert.Equal(t, tc.first, first)
			last, _ := idx.Last.Get()
			assert.Equal(t, tc.last, last)
			if tc.seen {
				assert.LessOrEqual(t, first, last)
			}
		})
	}
}

func TestOccasionZeroValueIsNever(t *testing.T) {
	var o Occasion
	assert.True(t, o.IsNever())
	assert.Equal(t, Never, o)
	assert.Equal(t, "never", o.String())
	assert.Panics(t, func() { o.Index() })
	assert.Panics(t, func() { At(0) })
	assert.Equal(t, 2, At(3).Index())
}

func TestNewMatrixValidates(t *testing.T) {
	_, err := NewMatrix([][]int{{1, 0}, {0}})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = NewMatrix(nil)
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = NewMatrix([][]int{{1, 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not binary")
}

func TestNewMatrixCopiesInput(t *testing.T) {
	rows := [][]int{{1, 0, 1}, {0, 0, 0}}
	m, err := NewMatrix(rows)
	require.NoError(t, err)
	rows[0][0] = 0

	assert.Equal(t, 2, m.Individuals())
	assert.Equal(t, 3, m.Occasions())
	assert.True(t, m.Captured(0, 0))
	assert.Equal(t, 1, m.Observed())

	idx := IndexMatrix(m)
	require.Len(t, idx, 2)
	assert.Equal(t, At(1), idx[0].First)
	assert.Equal(t, At(3), idx[0].Last)
	assert.False(t, idx[1].Seen())
}

func TestAugmentPadsZeroRows(t *testing.T) {
	rows := [][]int{{1, 0}, {0, 1}}
	out, err := Augment(rows, 3)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, row := range out[2:] {
		assert.Equal(t, []int{0, 0}, row)
	}
	out[0][0] = 0
	assert.Equal(t, 1, rows[0][0])

	_, err = Augment(rows, -1)
	assert.Error(t, err)
}
