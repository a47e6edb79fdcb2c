package analyze

import (
	"math"
	"math/rand"
)

const kmeansMaxIter = 100

// kmeans assigns each row to one of k clusters using Lloyd's algorithm
// with a fixed seed and multiple restarts, keeping the assignment with
// the lowest inertia. Deterministic for identical input.
func kmeans(rows [][]float64, k int, seed int64, restarts int) []int {
	rng := rand.New(rand.NewSource(seed))
	bestInertia := math.Inf(1)
	var best []int

	for r := 0; r < restarts; r++ {
		assign, inertia := runKMeans(rows, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			best = assign
		}
	}
	return best
}

func runKMeans(rows [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	dim := len(rows[0])
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(rows))[:k] {
		centroids[i] = append([]float64(nil), rows[idx]...)
	}

	assign := make([]int, len(rows))
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, row := range rows {
			c := nearestCentroid(row, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, row := range rows {
			c := assign[i]
			counts[c]++
			for d, v := range row {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Reseed an empty cluster from a random row.
				centroids[c] = append([]float64(nil), rows[rng.Intn(len(rows))]...)
				continue
			}
			for d := range sums[c] {
				sums[c][d] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}

	var inertia float64
	for i, row := range rows {
		inertia += squaredDistance(row, centroids[assign[i]])
	}
	return assign, inertia
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(row, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
