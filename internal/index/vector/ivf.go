// Package vector implements an in-memory IVF (inverted file) index for
// approximate cosine similarity search. Vectors are partitioned across
// coarse centroids; a query probes only the nearest nprobe partitions, so
// top-K recall is tunable rather than exact.
package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/maplebid/tendex/internal/domain"
)

// Defaults sized for a corpus in the hundreds of thousands.
const (
	DefaultNLists = 64
	DefaultNProbe = 8
)

// Hit is one similarity match.
type Hit struct {
	ID         string
	Similarity float64
}

type entry struct {
	id  string
	vec []float32 // unit-normalized at insert
}

// Index is the IVF vector index. Safe for concurrent readers; the ingest
// service serializes writers.
type Index struct {
	mu        sync.RWMutex
	dim       int
	nlists    int
	nprobe    int
	centroids [][]float32
	lists     [][]entry
	listOf    map[string]int
}

// New creates an empty index for vectors of the given dimensionality.
// nlists/nprobe fall back to defaults when non-positive; nprobe is the
// recall knob (more probed partitions, better recall, more work).
func New(dim, nlists, nprobe int) *Index {
	if dim <= 0 {
		dim = domain.VectorDimensions
	}
	if nlists <= 0 {
		nlists = DefaultNLists
	}
	if nprobe <= 0 {
		nprobe = DefaultNProbe
	}
	if nprobe > nlists {
		nprobe = nlists
	}
	return &Index{
		dim:    dim,
		nlists: nlists,
		nprobe: nprobe,
		listOf: make(map[string]int),
	}
}

// Dim returns the index dimensionality.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.listOf)
}

// Put stores or replaces the vector for a document. At most one current
// vector per document.
func (ix *Index) Put(id string, vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, index has %d", domain.ErrVectorDimMismatch, len(vec), ix.dim)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(id)

	v := normalize(vec)

	// Bootstrap coarse centroids from the first nlists vectors. Cheaper
	// than full k-means and adequate for a slowly-growing corpus; the
	// ingest pipeline recreates the index on bulk reloads anyway.
	if len(ix.centroids) < ix.nlists {
		ix.centroids = append(ix.centroids, v)
		ix.lists = append(ix.lists, []entry{{id: id, vec: v}})
		ix.listOf[id] = len(ix.lists) - 1
		return nil
	}

	li := ix.nearestCentroid(v)
	ix.lists[li] = append(ix.lists[li], entry{id: id, vec: v})
	ix.listOf[id] = li
	return nil
}

// Delete removes a document's vector. Unknown IDs are a no-op.
func (ix *Index) Delete(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id string) {
	li, ok := ix.listOf[id]
	if !ok {
		return
	}
	delete(ix.listOf, id)
	list := ix.lists[li]
	for i := range list {
		if list[i].id == id {
			list[i] = list[len(list)-1]
			ix.lists[li] = list[:len(list)-1]
			return
		}
	}
}

// Search returns the top-k most cosine-similar documents to the query
// vector, restricted to allowed IDs (nil means unrestricted). Documents
// without a stored vector are simply absent.
func (ix *Index) Search(q []float32, k int, allowed map[string]struct{}) ([]Hit, error) {
	if len(q) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrVectorDimMismatch, len(q), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	qn := normalize(q)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []Hit
	for _, li := range ix.probeOrder(qn) {
		for _, e := range ix.lists[li] {
			if allowed != nil {
				if _, ok := allowed[e.id]; !ok {
					continue
				}
			}
			hits = append(hits, Hit{ID: e.id, Similarity: dot(qn, e.vec)})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// probeOrder returns the indices of the nprobe centroids nearest to the
// query.
func (ix *Index) probeOrder(qn []float32) []int {
	type scored struct {
		li  int
		sim float64
	}
	all := make([]scored, len(ix.centroids))
	for i, c := range ix.centroids {
		all[i] = scored{li: i, sim: dot(qn, c)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	n := ix.nprobe
	if n > len(all) {
		n = len(all)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].li
	}
	return out
}

func (ix *Index) nearestCentroid(v []float32) int {
	best, bestSim := 0, math.Inf(-1)
	for i, c := range ix.centroids {
		if s := dot(v, c); s > bestSim {
			best, bestSim = i, s
		}
	}
	return best
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
