package testutil

// FixedTokenGenerator returns the same launch token every time.
//
// This enables deterministic launch directory names and golden
// snapshot comparison: the same scenario with the same
// FixedTokenGenerator produces byte-identical output.
//
// Unlike launchpad.FixedGenerator, which returns tokens in sequence
// and panics when exhausted, this generator never runs out. Useful for
// scenarios where every launch may share one token.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed launch token generator.
// If token is empty, Generate returns "test-launch-token".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-launch-token"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements launchpad.LaunchTokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
