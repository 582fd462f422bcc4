package capture

// Index holds the first and last capture occasion of one individual. Both are
// Never for an all-zero history.
type Index struct {
	First Occasion
	Last  Occasion
}

// Seen reports whether the individual was captured at least once.
func (x Index) Seen() bool {
	return !x.First.IsNever()
}

// IndexHistory returns the first and last capture occasion of one history.
func IndexHistory(history []int) Index {
	first, last := 0, 0
	for t, v := range history {
		if v == 0 {
			continue
		}
		if first == 0 {
			first = t + 1
		}
		last = t + 1
	}
	if first == 0 {
		return Index{First: Never, Last: Never}
	}
	return Index{First: At(first), Last: At(last)}
}

// IndexMatrix indexes every row of m.
func IndexMatrix(m Matrix) []Index {
	out := make([]Index, m.Individuals())
	for i := range out {
		out[i] = IndexHistory(m.Row(i))
	}
	return out
}
