package layout

import "math"

// bucketSpan is the numeric range a bucket owns. Footer is unbounded.
func bucketSpan(b Bucket) (start, end float64, bounded bool) {
	switch b {
	case BucketTop:
		return TopBucketStart, MiddleBucketStart, true
	case BucketMiddle:
		return MiddleBucketStart, BottomBucketStart, true
	case BucketBottom:
		return BottomBucketStart, FooterBucketThreshold, true
	case BucketFooter:
		return FooterBucketThreshold, 0, false
	default:
		return HeaderSplitThreshold, TopBucketStart, true
	}
}

// Renumber assigns consecutive numeric positions to elements, in the given
// order, inside bucket b: base, base+1, ... When the bucket range is too
// small the step shrinks so every position stays inside the bucket. Header
// elements are placed after the logo.
//
// Symbolic positions are kept. Numeric neighbours are fitted around the
// token's effective order so the given order still holds.
func Renumber(b Bucket, elements []CustomElement) []CustomElement {
	out := make([]CustomElement, len(elements))
	copy(out, elements)

	start, end, bounded := bucketSpan(b)
	step := 1.0
	if n := float64(len(out)); bounded && n > end-start {
		step = (end - start) / n
	}

	prev := math.Inf(-1)
	for i := range out {
		if out[i].Position.IsSymbolic() {
			prev = out[i].Position.EffectiveOrder()
			continue
		}

		v := start + float64(i)*step
		if v <= prev {
			v = prev + step
		}
		if limit, ok := nextSymbolicOrder(out[i+1:]); ok && v > limit {
			v = between(prev, limit)
		}
		if bounded && v >= end {
			v = between(prev, end)
		}
		out[i].Position = At(v)
		prev = v
	}
	return out
}

// nextSymbolicOrder returns the effective order of the first symbolic
// position in elements.
func nextSymbolicOrder(elements []CustomElement) (float64, bool) {
	for _, el := range elements {
		if el.Position.IsSymbolic() {
			return el.Position.EffectiveOrder(), true
		}
	}
	return 0, false
}

// between returns the midpoint of lo and hi, or hi when there is no room.
// Ties keep array order because sorting is stable.
func between(lo, hi float64) float64 {
	if math.IsInf(lo, -1) || lo >= hi {
		return hi
	}
	return lo + (hi-lo)/2
}

// Compact renumbers every bucket to base+index while keeping the render
// order. Header elements keep their side of the logo: the ones before it end
// at HeaderSplitThreshold-1, the ones after it start at HeaderSplitThreshold.
// Symbolic positions are left as they are. The result is in render order.
func Compact(elements []CustomElement) []CustomElement {
	parts := Partition(elements)
	out := make([]CustomElement, 0, len(elements))

	before := parts.BeforeLogo()
	for i, el := range before {
		el.Position = At(float64(HeaderSplitThreshold - len(before) + i))
		out = append(out, el)
	}
	out = append(out, Renumber(BucketHeader, parts.AfterLogo())...)

	for _, b := range []Bucket{BucketTop, BucketMiddle, BucketBottom, BucketFooter} {
		out = append(out, Renumber(b, parts.In(b))...)
	}
	return out
}
