package rates

// UncapturedRow returns chi for individual i over the given number of
// occasions: chi[t] is the probability that an individual alive at zero-based
// occasion t is never captured at a later occasion. chi[T-1] is 1.
func UncapturedRow(d Derived, i, occasions int) []float64 {
	chi := make([]float64, occasions)
	if occasions == 0 {
		return chi
	}
	chi[occasions-1] = 1
	for t := occasions - 2; t >= 0; t-- {
		phi := d.Survival.Rate(i, t)
		p := d.Capture.Rate(i, t+1)
		chi[t] = (1 - phi) + phi*(1-p)*chi[t+1]
	}
	return chi
}
