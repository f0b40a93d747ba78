package vector

import (
	"container/heap"
	"sort"
)

// Hit is a single similarity search result.
type Hit struct {
	Index int
	Score float64
}

// topK keeps the k best hits seen so far using a min-heap, so selection is
// O(n log k) instead of sorting the whole score vector.
type topK struct {
	k    int
	heap hitHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, heap: make(hitHeap, 0, k+1)}
}

// Offer considers a hit for the result set. A hit that ties the current
// minimum is rejected, which keeps the earliest row on boundary ties.
func (t *topK) Offer(h Hit) {
	if len(t.heap) < t.k {
		heap.Push(&t.heap, h)
		return
	}
	if h.Score > t.heap[0].Score {
		t.heap[0] = h
		heap.Fix(&t.heap, 0)
	}
}

// Results returns the selected hits ordered by descending score, ties by
// ascending row index.
func (t *topK) Results() []Hit {
	results := make([]Hit, len(t.heap))
	copy(results, t.heap)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
	return results
}

type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

// Less orders by ascending score so the root is the weakest kept hit; equal
// scores put the later row first so it is the one evicted.
func (h hitHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(Hit))
}

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
