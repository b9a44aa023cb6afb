package analytics

import (
	"math"
	"math/rand/v2"
	"slices"
)

const (
	DefaultClusterCount  = 3
	DefaultMaxIterations = 100
)

// KMeans partitions points into k clusters with Lloyd's algorithm.
// Centroids start at uniformly random positions inside the bounding box of
// the input, so cluster indices vary between runs unless rng is seeded.
type KMeans struct {
	k             int
	maxIterations int
	rng           *rand.Rand
	centroids     [][]float64
}

// NewKMeans builds a clusterer; non-positive k or maxIterations fall back to the defaults
func NewKMeans(k, maxIterations int, rng *rand.Rand) *KMeans {
	if k <= 0 {
		k = DefaultClusterCount
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if rng == nil {
		rng = newRand(0)
	}
	return &KMeans{k: k, maxIterations: maxIterations, rng: rng}
}

// Cluster returns the cluster index of each point, in input order.
// Every point must have the dimension of the first one.
func (km *KMeans) Cluster(points [][]float64) []int {
	if len(points) == 0 {
		return []int{}
	}

	dims := len(points[0])
	km.centroids = make([][]float64, km.k)
	for c := range km.centroids {
		centroid := make([]float64, dims)
		for d := 0; d < dims; d++ {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, p := range points {
				lo = math.Min(lo, p[d])
				hi = math.Max(hi, p[d])
			}
			centroid[d] = km.rng.Float64()*(hi-lo) + lo
		}
		km.centroids[c] = centroid
	}

	assignments := make([]int, len(points))
	for iter := 0; iter < km.maxIterations; iter++ {
		next := make([]int, len(points))
		for i, p := range points {
			next[i] = km.nearest(p)
		}

		if slices.Equal(assignments, next) {
			break
		}
		assignments = next

		for c := range km.centroids {
			sum := make([]float64, dims)
			count := 0
			for i, p := range points {
				if assignments[i] != c {
					continue
				}
				for d := range sum {
					sum[d] += p[d]
				}
				count++
			}
			if count == 0 {
				continue
			}
			for d := range sum {
				km.centroids[c][d] = sum[d] / float64(count)
			}
		}
	}

	return assignments
}

// Centroids returns the centroids of the last Cluster call
func (km *KMeans) Centroids() [][]float64 {
	return km.centroids
}

func (km *KMeans) nearest(p []float64) int {
	best := 0
	minDist := math.Inf(1)
	for c, centroid := range km.centroids {
		if dist := euclidean(p, centroid); dist < minDist {
			minDist = dist
			best = c
		}
	}
	return best
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
