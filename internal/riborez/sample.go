package riborez

import "math/rand"

// sampleGenomes picks size genomes uniformly without replacement using a
// seeded generator, so identical (genomes, size, seed) inputs always return
// the identical subset. The subset keeps the discovery order of the input
// list; size <= 0 or >= len(genomes) returns every genome.
func sampleGenomes(genomes []Genome, size int, seed int64) []Genome {
	if size <= 0 || size >= len(genomes) {
		return genomes
	}

	rng := rand.New(rand.NewSource(seed))
	picked := make([]bool, len(genomes))
	for _, i := range rng.Perm(len(genomes))[:size] {
		picked[i] = true
	}

	sampled := make([]Genome, 0, size)
	for i, g := range genomes {
		if picked[i] {
			sampled = append(sampled, g)
		}
	}
	return sampled
}
