package composition

// Class is the classification of one sequence byte.
type Class uint8

const (
	// Other bytes count toward the total only.
	Other Class = iota
	// GC bytes count toward both the GC count and the total.
	GC
	// Ignored bytes are unknown bases and are not counted.
	Ignored
	// Separator bytes are line breaks and are not counted.
	Separator
)

func (c Class) String() string {
	switch c {
	case GC:
		return "gc"
	case Ignored:
		return "ignored"
	case Separator:
		return "separator"
	default:
		return "other"
	}
}

var classes = func() (t [256]Class) {
	t['G'], t['g'], t['C'], t['c'] = GC, GC, GC, GC
	t['N'], t['n'] = Ignored, Ignored
	t['\n'], t['\r'] = Separator, Separator
	return t
}()

// Classify returns the class of b
func Classify(b byte) Class {
	return classes[b]
}

// Counts holds the running base counts of one or more sequences.
// G + C <= Total always holds.
type Counts struct {
	G     uint64
	C     uint64
	Total uint64
}

// GC returns the combined G and C count
func (c Counts) GC() uint64 { return c.G + c.C }

// Add classifies every byte of seq and adds it to c.
func (c *Counts) Add(seq []byte) {
	for _, b := range seq {
		switch classes[b] {
		case GC:
			if b == 'G' || b == 'g' {
				c.G++
			} else {
				c.C++
			}
			c.Total++
		case Other:
			c.Total++
		}
	}
}

// Merge adds other into c
func (c *Counts) Merge(other Counts) {
	c.G += other.G
	c.C += other.C
	c.Total += other.Total
}

// Percent returns GC/Total*100. ok is false when Total is zero.
func (c Counts) Percent() (pct float64, ok bool) {
	if c.Total == 0 {
		return 0, false
	}
	return float64(c.GC()) / float64(c.Total) * 100.0, true
}

// Count returns the base counts of a single sequence.
func Count(seq []byte) Counts {
	var c Counts
	c.Add(seq)
	return c
}

// Compute returns the GC content of seq as a percentage. ok is false when seq
// has no informative bases.
func Compute(seq []byte) (pct float64, ok bool) {
	return Count(seq).Percent()
}

// Length returns the number of non-separator bytes in seq, unknown bases
// included.
func Length(seq []byte) uint64 {
	var n uint64
	for _, b := range seq {
		if classes[b] != Separator {
			n++
		}
	}
	return n
}
