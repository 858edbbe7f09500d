package agent

import "strings"

// The planner is instructed to copy canonical entity names verbatim, but
// models occasionally rewrite them anyway ("컴퓨터공학과" becoming
// "컴퓨터과학과"). The post-check compares the answer's words against the
// canonical names collected from tool results and substitutes close
// near-misses with the canonical form.

// repairThreshold is the minimum character-bigram overlap between an answer
// word and a canonical name for the word to count as an altered rendering.
const repairThreshold = 0.5

// nameSet accumulates canonical names in first-seen order.
type nameSet struct {
	order []string
	seen  map[string]bool
}

func newNameSet() *nameSet {
	return &nameSet{seen: make(map[string]bool)}
}

func (s *nameSet) add(names ...string) {
	for _, name := range names {
		if name == "" || s.seen[name] {
			continue
		}
		s.seen[name] = true
		s.order = append(s.order, name)
	}
}

func (s *nameSet) names() []string {
	return s.order
}

// repairNames replaces altered renderings of canonical names in the answer
// with the canonical form. A name already present verbatim is left alone,
// as are words that merely attach a particle to a canonical name. Returns
// the repaired answer and whether anything was changed.
func repairNames(answer string, canonical []string) (string, bool) {
	repaired := false
	for _, name := range canonical {
		if len([]rune(name)) < 3 || strings.Contains(answer, name) {
			continue
		}

		nameBigrams := runeBigrams(name)
		for _, word := range strings.Fields(answer) {
			trimmed := strings.Trim(word, ".,!?()[]\"'")
			if trimmed == "" || strings.Contains(trimmed, name) {
				continue
			}
			if bigramDice(nameBigrams, runeBigrams(trimmed)) >= repairThreshold {
				answer = strings.ReplaceAll(answer, trimmed, name)
				repaired = true
				break
			}
		}
	}
	return answer, repaired
}

func runeBigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// bigramDice is the Dice coefficient over character bigram multisets.
func bigramDice(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap, sizeA, sizeB := 0, 0, 0
	for g, n := range a {
		sizeA += n
		if m := b[g]; m > 0 {
			overlap += min(n, m)
		}
	}
	for _, n := range b {
		sizeB += n
	}
	return 2 * float64(overlap) / float64(sizeA+sizeB)
}
