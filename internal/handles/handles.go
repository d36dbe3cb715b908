package handles

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Word lists for suggesting available profile handles when the desired
// one is taken or when provisioning a profile without a chosen username.
var adjectives = []string{
	"amber", "bold", "bright", "calm", "clear", "cobalt", "coral", "crisp",
	"daily", "early", "fresh", "golden", "humble", "indie", "keen", "lively",
	"lunar", "mellow", "mint", "modern", "neat", "nimble", "north", "prime",
	"quiet", "rapid", "sage", "solar", "spark", "swift", "urban", "vivid",
}

var nouns = []string{
	"anchor", "atlas", "beacon", "canvas", "cedar", "comet", "current",
	"ember", "field", "harbor", "haven", "lantern", "meadow", "orbit",
	"peak", "pixel", "prairie", "quill", "reef", "ridge", "river", "signal",
	"sprout", "studio", "summit", "terrace", "thread", "trail", "vista", "wave",
}

// Suggest generates a random handle in the form "adjective-noun",
// already valid against the username rules.
func Suggest() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// SuggestWithSuffix appends a short random number, for a second round of
// suggestions after a collision.
func SuggestWithSuffix() (string, error) {
	base, err := Suggest()
	if err != nil {
		return "", err
	}

	num, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d", base, num.Int64()), nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[num.Int64()], nil
}
