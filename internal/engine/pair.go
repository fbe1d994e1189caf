package engine

import (
	"strings"

	"volintel/models"
)

// NormalizePair strips the usual separators from a pair string and
// uppercases it. Anything that does not reduce to exactly 6 letters
// is rejected; a bad pair is never silently defaulted.
func NormalizePair(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '-', '_', ' ':
			return -1
		}
		return r
	}, raw)
	cleaned = strings.ToUpper(cleaned)

	if len(cleaned) != 6 {
		return "", &models.InvalidPairError{Pair: raw}
	}
	for _, r := range cleaned {
		if r < 'A' || r > 'Z' {
			return "", &models.InvalidPairError{Pair: raw}
		}
	}
	return cleaned, nil
}

// DisplayPair renders a normalized pair in the slash form the data
// vendor expects, e.g. EURUSD -> EUR/USD.
func DisplayPair(pair string) string {
	if len(pair) != 6 {
		return pair
	}
	return pair[:3] + "/" + pair[3:]
}
