package tree

import "math"

// Histogram holds class-count statistics for a set of training or
// classification samples. sample_total is always the sum of class_totals;
// operations that would break that invariant are no-ops rather than
// panics, matching the reference behavior of a forgiving statistics type
// that's queried millions of times during training.
type Histogram struct {
	sampleTotal uint64
	classTotals []uint32
}

// NewHistogram returns a zeroed histogram sized for classCount classes.
func NewHistogram(classCount int) *Histogram {
	return &Histogram{classTotals: make([]uint32, classCount)}
}

// ClassCount reports the number of classes this histogram tracks.
func (h *Histogram) ClassCount() int {
	return len(h.classTotals)
}

// SampleTotal reports the total sample count across all classes.
func (h *Histogram) SampleTotal() uint64 {
	return h.sampleTotal
}

// ClassTotal reports the count for a single class, or 0 if out of range.
func (h *Histogram) ClassTotal(class int) uint32 {
	if class < 0 || class >= len(h.classTotals) {
		return 0
	}
	return h.classTotals[class]
}

// Increment adds one sample to class. Returns false, making no change, if
// class is out of range.
func (h *Histogram) Increment(class int) bool {
	if class < 0 || class >= len(h.classTotals) {
		return false
	}
	h.classTotals[class]++
	h.sampleTotal++
	return true
}

// ClearClass removes a class from the histogram, used to suppress the
// background class when voting at the image level. Out-of-range class
// indices are ignored.
func (h *Histogram) ClearClass(class int) {
	if class < 0 || class >= len(h.classTotals) {
		return
	}
	h.sampleTotal -= uint64(h.classTotals[class])
	h.classTotals[class] = 0
}

// Percentage returns class's share of the sample total, or 0 if the
// histogram is empty or class is out of range.
func (h *Histogram) Percentage(class int) float64 {
	if class < 0 || class >= len(h.classTotals) || h.sampleTotal == 0 {
		return 0
	}
	return float64(h.classTotals[class]) / float64(h.sampleTotal)
}

// Entropy computes Shannon entropy over the class distribution, skipping
// the 0*log(0) term for empty classes.
func (h *Histogram) Entropy() float64 {
	var total float64
	for class := range h.classTotals {
		p := h.Percentage(class)
		if p > 0 {
			total += p * math.Log2(p)
		}
	}
	return -total
}

// DominantClass returns the index of the first class achieving the
// highest count. Empty or all-zero histograms return 0 — callers that
// need to distinguish "no samples" from "class 0 dominant" must check
// SampleTotal themselves.
func (h *Histogram) DominantClass() int {
	highestTotal := uint32(0)
	highestIndex := 0
	for class, total := range h.classTotals {
		if total > highestTotal {
			highestTotal = total
			highestIndex = class
		}
	}
	return highestIndex
}

// Merge adds other's counts into h, componentwise. A no-op if the class
// counts differ.
func (h *Histogram) Merge(other *Histogram) {
	if len(h.classTotals) != len(other.classTotals) {
		return
	}
	h.sampleTotal += other.sampleTotal
	for i, v := range other.classTotals {
		h.classTotals[i] += v
	}
}

// Clone returns an independent copy of h.
func (h *Histogram) Clone() *Histogram {
	c := &Histogram{
		sampleTotal: h.sampleTotal,
		classTotals: make([]uint32, len(h.classTotals)),
	}
	copy(c.classTotals, h.classTotals)
	return c
}
