package layout

import "sort"

// Layout holds the elements of one render pass grouped by bucket, each bucket
// sorted by effective order.
type Layout struct {
	Header []CustomElement
	Top    []CustomElement
	Middle []CustomElement
	Bottom []CustomElement
	Footer []CustomElement
}

// SortBucket returns a new slice ordered ascending by effective order. Ties
// keep their input order.
func SortBucket(elements []CustomElement) []CustomElement {
	sorted := make([]CustomElement, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.EffectiveOrder() < sorted[j].Position.EffectiveOrder()
	})
	return sorted
}

// Partition classifies every element into exactly one bucket and sorts each
// bucket. The input slice is not modified.
func Partition(elements []CustomElement) Layout {
	var buckets [BucketFooter + 1][]CustomElement
	for _, el := range elements {
		b := el.Bucket()
		buckets[b] = append(buckets[b], el)
	}

	return Layout{
		Header: SortBucket(buckets[BucketHeader]),
		Top:    SortBucket(buckets[BucketTop]),
		Middle: SortBucket(buckets[BucketMiddle]),
		Bottom: SortBucket(buckets[BucketBottom]),
		Footer: SortBucket(buckets[BucketFooter]),
	}
}

// In returns the sorted elements of one bucket.
func (l Layout) In(b Bucket) []CustomElement {
	switch b {
	case BucketHeader:
		return l.Header
	case BucketTop:
		return l.Top
	case BucketMiddle:
		return l.Middle
	case BucketBottom:
		return l.Bottom
	case BucketFooter:
		return l.Footer
	default:
		return nil
	}
}

// BeforeLogo returns header elements positioned below HeaderSplitThreshold.
func (l Layout) BeforeLogo() []CustomElement {
	var out []CustomElement
	for _, el := range l.Header {
		if el.Position.Value() < HeaderSplitThreshold {
			out = append(out, el)
		}
	}
	return out
}

// AfterLogo returns header elements in [HeaderSplitThreshold, 0).
func (l Layout) AfterLogo() []CustomElement {
	var out []CustomElement
	for _, el := range l.Header {
		if el.Position.Value() >= HeaderSplitThreshold {
			out = append(out, el)
		}
	}
	return out
}

// Len returns the total number of elements across all buckets.
func (l Layout) Len() int {
	return len(l.Header) + len(l.Top) + len(l.Middle) + len(l.Bottom) + len(l.Footer)
}
