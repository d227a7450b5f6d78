package soap

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/usersoap/internal/types"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a suggestion
const suggestThreshold = 0.85

// Suggest returns the known operation closest to name, if any is close enough.
// Comparison ignores case, so "getuser" suggests GetUser.
func Suggest(name string) (types.Operation, bool) {
	if name == "" {
		return "", false
	}

	lower := strings.ToLower(name)
	var (
		best      types.Operation
		bestScore float32
	)
	for _, op := range types.Operations {
		score, err := edlib.StringsSimilarity(lower, strings.ToLower(op.String()), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = op, score
		}
	}

	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}
