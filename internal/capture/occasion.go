package capture

import "fmt"

// Occasion is a 1-based sampling occasion or Never. The zero value is Never.
type Occasion struct {
	n int
}

// Never marks an individual that was not captured at any occasion.
var Never = Occasion{}

// At returns the 1-based occasion k. k must be >= 1.
func At(k int) Occasion {
	if k < 1 {
		panic(fmt.Sprintf("capture: occasion %d is not 1-based", k))
	}
	return Occasion{n: k}
}

// Get returns the 1-based occasion and whether it is set.
func (o Occasion) Get() (int, bool) {
	return o.n, o.n > 0
}

// IsNever reports whether o is Never.
func (o Occasion) IsNever() bool {
	return o.n == 0
}

// Index returns the zero-based slice index of o. It panics on Never.
func (o Occasion) Index() int {
	if o.n == 0 {
		panic("capture: Index called on Never")
	}
	return o.n - 1
}

func (o Occasion) String() string {
	if o.n == 0 {
		return "never"
	}
	return fmt.Sprintf("occasion %d", o.n)
}
