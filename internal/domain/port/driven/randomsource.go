package driven

// RandomSource returns a pseudo-random integer in [0, n). Results must be
// independent across calls.
type RandomSource interface {
	IntN(n int) int
}
