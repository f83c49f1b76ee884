package classify

import "math/rand"

// rng wraps math/rand.Rand, the same per-worker "rand.New(rand.NewSource(seed))"
// pattern encoding/fastq/downsample.go uses for its deterministic
// subsampling, seeded per query instead of once globally so that workers
// classifying different queries concurrently never share (and contend on)
// a single source.
type rng struct {
	r *rand.Rand
}

func newRNG(seed uint64) *rng {
	return &rng{r: rand.New(rand.NewSource(int64(seed)))}
}

func (g *rng) intn(n int) int {
	return g.r.Intn(n)
}
