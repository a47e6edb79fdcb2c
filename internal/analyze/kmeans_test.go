package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBlobs() [][]float64 {
	return [][]float64{
		{0.0, 0.1}, {0.2, 0.0}, {0.1, 0.2}, {0.0, 0.0},
		{9.9, 10.0}, {10.1, 9.8}, {10.0, 10.2}, {9.8, 10.1},
	}
}

func TestKMeansSeparatesObviousClusters(t *testing.T) {
	assign := kmeans(twoBlobs(), 2, 42, 10)
	require.Len(t, assign, 8)

	first := assign[0]
	for i := 1; i < 4; i++ {
		assert.Equal(t, first, assign[i], "row %d", i)
	}
	second := assign[4]
	for i := 5; i < 8; i++ {
		assert.Equal(t, second, assign[i], "row %d", i)
	}
	assert.NotEqual(t, first, second)
}

func TestKMeansIsDeterministic(t *testing.T) {
	a := kmeans(twoBlobs(), 2, 42, 10)
	b := kmeans(twoBlobs(), 2, 42, 10)
	assert.Equal(t, a, b)
}

func TestKMeansAssignsEveryRow(t *testing.T) {
	rows := twoBlobs()
	assign := kmeans(rows, 3, 42, 10)
	require.Len(t, assign, len(rows))
	for i, c := range assign {
		assert.GreaterOrEqual(t, c, 0, "row %d", i)
		assert.Less(t, c, 3, "row %d", i)
	}
}

func TestReorderByClusterKeepsAllSentencesGrouped(t *testing.T) {
	sentences := []string{"s0", "s1", "s2", "s3"}
	assign := []int{1, 0, 1, 0}

	got := reorderByCluster(sentences, assign, 2)
	assert.Equal(t, "s1\ns3\n\ns0\ns2\n", got)
}
