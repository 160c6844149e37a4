package evaluation

import (
	"strings"
	"unicode"
)

var articles = map[string]bool{"a": true, "an": true, "the": true}

// normalizeText lower-cases s, drops punctuation and the articles a/an/the, and collapses
// whitespace, following the SQuAD/QuAC answer normalization.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !articles[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func tokens(s string, normalize bool) []string {
	s = strings.TrimSpace(s)
	if normalize {
		s = normalizeText(s)
	}
	return strings.Fields(s)
}

// overlap counts tokens shared by pred and gold, respecting multiplicity.
func overlap(pred, gold []string) int {
	counts := make(map[string]int, len(gold))
	for _, t := range gold {
		counts[t]++
	}
	n := 0
	for _, t := range pred {
		if counts[t] > 0 {
			counts[t]--
			n++
		}
	}
	return n
}

func precisionOverWords(output, target string) float64 {
	pred, gold := tokens(output, true), tokens(target, true)
	if len(pred) == 0 {
		return boolScore(len(gold) == 0)
	}
	return float64(overlap(pred, gold)) / float64(len(pred))
}

func recallOverWords(output, target string) float64 {
	pred, gold := tokens(output, true), tokens(target, true)
	if len(gold) == 0 {
		return boolScore(len(pred) == 0)
	}
	return float64(overlap(pred, gold)) / float64(len(gold))
}

func f1Score(output, target string) float64 {
	p, r := precisionOverWords(output, target), recallOverWords(output, target)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func exactMatch(output, target string) float64 {
	return boolScore(strings.TrimSpace(output) == strings.TrimSpace(target))
}

func quasiExactMatch(output, target string) float64 {
	return boolScore(normalizeText(output) == normalizeText(target))
}

func exactInclusion(output, target string) float64 {
	return boolScore(strings.Contains(strings.ToLower(output), strings.ToLower(strings.TrimSpace(target))))
}

func quasiExactInclusion(output, target string) float64 {
	return boolScore(strings.Contains(normalizeText(output), normalizeText(target)))
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// splitTargets splits a flattened answer string on delim, dropping empty alternatives.
func splitTargets(answers, delim string) []string {
	if delim == "" {
		return []string{answers}
	}
	var out []string
	for _, t := range strings.Split(answers, delim) {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{answers}
	}
	return out
}
