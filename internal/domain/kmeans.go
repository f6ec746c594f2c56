package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// ErrTooFewLocations is returned when the dataset has fewer distinct
// locations (in the standardized feature space) than risk tiers.
var ErrTooFewLocations = errors.New("too few distinct locations to form risk tiers")

// Clustering defaults.
const (
	DefaultClusters  = 3
	DefaultInits     = 10
	DefaultMaxIter   = 300
	DefaultTolerance = 1e-4
	DefaultSeed      = 42
)

// KMeans partitions points into K clusters with Lloyd's algorithm and
// k-means++ seeding. The zero value is not usable; see NewKMeans.
type KMeans struct {
	K       int
	Inits   int
	MaxIter int
	Tol     float64
	Seed    uint64
}

// NewKMeans returns a three-cluster KMeans with the given seed and number of
// initializations.
func NewKMeans(seed uint64, inits int) KMeans {
	if inits < 1 {
		inits = DefaultInits
	}
	return KMeans{
		K:       DefaultClusters,
		Inits:   inits,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTolerance,
		Seed:    seed,
	}
}

// Clustering is the result of one k-means fit. Labels[i] is the cluster id of
// points[i]; ids are arbitrary and carry no severity ordering.
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// Fit runs Inits seeded initializations and returns the one with the lowest
// inertia. The same points and seed always produce the same clustering.
func (km KMeans) Fit(points [][]float64) (Clustering, error) {
	if n := countDistinct(points); n < km.K {
		return Clustering{}, fmt.Errorf("%w: need %d, have %d", ErrTooFewLocations, km.K, n)
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))

	var best Clustering
	for run := 0; run < km.Inits; run++ {
		c := km.lloyd(points, km.seedCentroids(points, rng))
		if run == 0 || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best, nil
}

// seedCentroids picks K initial centroids with k-means++: each next centroid
// is drawn with probability proportional to its squared distance from the
// nearest centroid chosen so far.
func (km KMeans) seedCentroids(points [][]float64, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, km.K)
	first := points[rng.IntN(len(points))]
	centroids = append(centroids, clonePoint(first))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, first)
	}

	for len(centroids) < km.K {
		next := weightedPick(dist, rng)
		c := clonePoint(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// weightedPick draws an index with probability proportional to weights.
// Zero-weight indices are never picked unless every weight is zero.
func weightedPick(weights []float64, rng *rand.Rand) int {
	total := floats.Sum(weights)
	if total == 0 {
		return rng.IntN(len(weights))
	}

	last := 0
	r := rng.Float64() * total
	for i, w := range weights {
		if w == 0 {
			continue
		}
		last = i
		r -= w
		if r < 0 {
			return i
		}
	}
	return last
}

func (km KMeans) lloyd(points, centroids [][]float64) Clustering {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < km.MaxIter; iter++ {
		changed := assignNearest(points, centroids, labels)
		next := updateCentroids(points, labels, centroids)

		var shift float64
		for c := range centroids {
			shift += sqDist(centroids[c], next[c])
		}
		centroids = next
		if !changed || shift <= km.Tol {
			break
		}
	}
	assignNearest(points, centroids, labels)

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return Clustering{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// assignNearest labels each point with its closest centroid, preferring the
// lower id on ties. It reports whether any label changed.
func assignNearest(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestDist := 0, sqDist(p, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sqDist(p, centroids[c]); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// updateCentroids moves each centroid to the mean of its members. A cluster
// left without members is re-seeded at the point farthest from its own
// centroid.
func updateCentroids(points [][]float64, labels []int, old [][]float64) [][]float64 {
	k, dim := len(old), len(old[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	taken := make(map[int]bool)
	for c := range sums {
		if counts[c] == 0 {
			far := farthestPoint(points, labels, old, taken)
			taken[far] = true
			sums[c] = clonePoint(points[far])
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64, taken map[int]bool) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if taken[i] {
			continue
		}
		if d := sqDist(p, centroids[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func countDistinct(points [][]float64) int {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		seen[fmt.Sprint(p)] = struct{}{}
	}
	return len(seen)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clonePoint(p []float64) []float64 {
	return append([]float64(nil), p...)
}
