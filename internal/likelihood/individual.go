package likelihood

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"jollyseber/internal/rates"
)

func (e *Evaluator) individual(i int, psi float64, d rates.Derived, logEntry []float64) float64 {
	chi := rates.UncapturedRow(d, i, e.Occasions())
	idx := e.index[i]
	if !idx.Seen() {
		return unseen(i, psi, d, logEntry, chi)
	}

	first, last := idx.First.Index(), idx.Last.Index()
	ll := math.Log(psi)
	ll += entryUntilFirst(i, first, d, logEntry)
	for t := first + 1; t <= last; t++ {
		ll += math.Log(d.Survival.Rate(i, t-1))
		p := d.Capture.Rate(i, t)
		if e.captures.Captured(i, t) {
			ll += math.Log(p)
		} else {
			ll += math.Log1p(-p)
		}
	}
	return ll + math.Log(chi[last])
}

// entryUntilFirst marginalises the entry occasion k in [0, first]: enter at
// k, survive undetected through first-1, then be detected at first.
func entryUntilFirst(i, first int, d rates.Derived, logEntry []float64) float64 {
	detected := math.Log(d.Capture.Rate(i, first))
	if first == 0 {
		return logEntry[0] + detected
	}

	lp := make([]float64, first+1)
	undetected := 0.0
	for k := first; k >= 0; k-- {
		if k < first {
			undetected += math.Log1p(-d.Capture.Rate(i, k)) + math.Log(d.Survival.Rate(i, k))
		}
		lp[k] = logEntry[k] + undetected + detected
	}
	return floats.LogSumExp(lp)
}

// unseen marginalises an all-zero history over every entry occasion plus the
// alternative of never being included.
func unseen(i int, psi float64, d rates.Derived, logEntry, chi []float64) float64 {
	occasions := len(logEntry)
	lp := make([]float64, occasions+1)
	logPsi := math.Log(psi)
	for t := 0; t < occasions; t++ {
		lp[t] = logPsi + logEntry[t] + math.Log1p(-d.Capture.Rate(i, t)) + math.Log(chi[t])
	}
	lp[occasions] = math.Log1p(-psi)
	return floats.LogSumExp(lp)
}
