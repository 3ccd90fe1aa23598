package search

import (
	"strings"

	"github.com/maplebid/tendex/internal/domain/search/filter"
	"github.com/maplebid/tendex/internal/domain/search/query"
	"github.com/maplebid/tendex/internal/index/lexical"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
	// fragmentLead is how many words of context precede the first match
	// of a fragment.
	fragmentLead = 5
	// fallbackWords is the plain excerpt length when nothing matched.
	fallbackWords = 40
	fragmentJoin  = " … "
)

// excerpt builds the highlighted snippet for one result. Matched terms,
// phrase runs and wildcard hits in the description are wrapped in <mark>;
// the description itself is never modified. A result with no lexical
// overlap (semantic-only hit) gets the leading words unhighlighted.
func (s *Service) excerpt(text string, parsed *query.Parsed) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	matched := markMatches(words, parsed)

	first := -1
	for i, m := range matched {
		if m {
			first = i
			break
		}
	}
	if first < 0 {
		n := fallbackWords
		if n > len(words) {
			n = len(words)
		}
		return strings.Join(words[:n], " ")
	}

	return s.joinFragments(words, matched)
}

// markMatches flags each word of the text that a positive query token
// covers. Phrases flag their whole run; wildcards match per-word.
func markMatches(words []string, parsed *query.Parsed) []bool {
	matched := make([]bool, len(words))

	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = normWord(w)
	}

	terms := make(map[string]struct{})
	for _, t := range parsed.PositiveTerms() {
		for _, tok := range lexical.Tokenize(t) {
			terms[tok] = struct{}{}
		}
	}

	for i, n := range norm {
		if n == "" {
			continue
		}
		if _, ok := terms[n]; ok {
			matched[i] = true
			continue
		}
		for _, p := range parsed.Wildcards {
			if filter.PatternMatch(p, n) {
				matched[i] = true
				break
			}
		}
	}

	for _, phrase := range parsed.PositivePhrases() {
		markPhrase(norm, matched, phrase)
	}

	return matched
}

// markPhrase flags every occurrence of a normalized word run.
func markPhrase(norm []string, matched []bool, phrase []string) {
	want := make([]string, 0, len(phrase))
	for _, w := range phrase {
		want = append(want, lexical.Tokenize(w)...)
	}
	if len(want) == 0 {
		return
	}

	for i := 0; i+len(want) <= len(norm); i++ {
		hit := true
		for j, w := range want {
			if norm[i+j] != w {
				hit = false
				break
			}
		}
		if hit {
			for j := range want {
				matched[i+j] = true
			}
		}
	}
}

// joinFragments cuts up to HighlightFragments windows around matches and
// wraps the matched words.
func (s *Service) joinFragments(words []string, matched []bool) string {
	window := s.params.HighlightWindow
	var b strings.Builder
	fragments := 0

	i := 0
	for i < len(words) && fragments < s.params.HighlightFragments {
		if !matched[i] {
			i++
			continue
		}

		start := i - fragmentLead
		if start < 0 {
			start = 0
		}
		end := start + window
		if end <= i {
			end = i + 1
		}
		if end > len(words) {
			end = len(words)
		}

		if fragments > 0 {
			b.WriteString(fragmentJoin)
		}
		writeFragment(&b, words[start:end], matched[start:end])
		fragments++
		i = end
	}

	return b.String()
}

func writeFragment(b *strings.Builder, words []string, matched []bool) {
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		if matched[i] {
			b.WriteString(markOpen)
			b.WriteString(w)
			b.WriteString(markClose)
		} else {
			b.WriteString(w)
		}
	}
}

// normWord lowercases a display word and strips punctuation so it can be
// compared with index tokens.
func normWord(w string) string {
	toks := lexical.Tokenize(w)
	if len(toks) == 0 {
		return ""
	}
	// "cost-effective" tokenizes to two words; compare on the first so a
	// term hit still highlights the visible word.
	return toks[0]
}
