package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxTitleDistance is the edit distance under which two titles count as the same proposal
const MaxTitleDistance = 2

// SimilarTitles returns the candidates whose normalized title is within MaxTitleDistance of title
func SimilarTitles(title string, candidates []string) []string {
	needle := normalizeTitle(title)
	if needle == "" {
		return nil
	}

	var similar []string
	for _, candidate := range candidates {
		if levenshtein.ComputeDistance(needle, normalizeTitle(candidate)) <= MaxTitleDistance {
			similar = append(similar, candidate)
		}
	}
	return similar
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
