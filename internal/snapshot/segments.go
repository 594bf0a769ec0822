package snapshot

import (
	"cmp"
	"slices"
)

const (
	// minSegmentGap is the smallest run of zero bytes that separates two data segments. Shorter runs cost less
	// inside a segment than the header of a new one.
	minSegmentGap = 8
	// maxSegments keeps the data section within the limits engines put on segment counts.
	maxSegments = 10000
)

// span is a half-open range of memory.
type span struct {
	start, end int
}

// nonZeroSpans returns the ranges of mem that must be initialized, merging ranges separated by fewer than
// minSegmentGap zero bytes.
func nonZeroSpans(mem []byte) []span {
	var spans []span
	for i := 0; i < len(mem); {
		for i < len(mem) && mem[i] == 0 {
			i++
		}
		if i == len(mem) {
			break
		}
		start := i
		for i < len(mem) && mem[i] != 0 {
			i++
		}
		if n := len(spans); n > 0 && start-spans[n-1].end < minSegmentGap {
			spans[n-1].end = i
		} else {
			spans = append(spans, span{start: start, end: i})
		}
	}
	return spans
}

// limitSpans merges the spans separated by the smallest gaps until at most limit remain.
func limitSpans(spans []span, limit int) []span {
	if len(spans) <= limit {
		return spans
	}

	// gaps[i] is the gap following spans[gaps[i]].
	gaps := make([]int, len(spans)-1)
	for i := range gaps {
		gaps[i] = i
	}
	slices.SortStableFunc(gaps, func(a, b int) int {
		return cmp.Compare(spans[a+1].start-spans[a].end, spans[b+1].start-spans[b].end)
	})
	merge := make([]bool, len(spans)-1)
	for _, g := range gaps[:len(spans)-limit] {
		merge[g] = true
	}

	ret := make([]span, 0, limit)
	cur := spans[0]
	for i := 1; i < len(spans); i++ {
		if merge[i-1] {
			cur.end = spans[i].end
		} else {
			ret = append(ret, cur)
			cur = spans[i]
		}
	}
	return append(ret, cur)
}
