package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywordMatch is the scored outcome of matching one candidate
// against the query tokens.
type keywordMatch struct {
	score float32
	spans []Span
}

// tokenize lowercases and splits a query into match tokens.
func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// matchKeyword scores a candidate against the query tokens by match
// density: token coverage dominates, with a density bonus so shorter
// content matching the same tokens ranks higher. Returns a zero score
// when no token matches.
func matchKeyword(title, description string, tokens []string) keywordMatch {
	if len(tokens) == 0 {
		return keywordMatch{}
	}

	matchedTokens := 0
	matchedChars := 0
	var spans []Span

	for _, token := range tokens {
		titleSpans := findSpans("title", title, token)
		descSpans := findSpans("description", description, token)
		if len(titleSpans) == 0 && len(descSpans) == 0 {
			continue
		}
		matchedTokens++
		for _, sp := range titleSpans {
			matchedChars += sp.End - sp.Start
		}
		for _, sp := range descSpans {
			matchedChars += sp.End - sp.Start
		}
		spans = append(spans, titleSpans...)
		spans = append(spans, descSpans...)
	}

	if matchedTokens == 0 {
		return keywordMatch{}
	}

	coverage := float32(matchedTokens) / float32(len(tokens))

	contentLen := len(title) + len(description)
	density := float32(0)
	if contentLen > 0 {
		density = float32(matchedChars) / float32(contentLen)
		if density > 1 {
			density = 1
		}
	}

	return keywordMatch{
		score: coverage*0.8 + density*0.2,
		spans: spans,
	}
}

// findSpans returns every case-insensitive occurrence of token in
// text. Spans are byte offsets into the original field, matched with
// a fold-aware scan rather than against a lowercased copy: case
// folding can change rune byte lengths, so offsets into a lowered
// string do not line up with the original. The invariant is that
// text[span.Start:span.End] always equals the matched region.
func findSpans(field, text, token string) []Span {
	if token == "" {
		return nil
	}
	tokenRunes := []rune(token)

	var spans []Span
	for i := 0; i < len(text); {
		if end, ok := foldMatchAt(text, i, tokenRunes); ok {
			spans = append(spans, Span{Field: field, Start: i, End: end})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// foldMatchAt reports whether the lowercased token matches text at
// byte offset start, returning the end offset of the match in text.
func foldMatchAt(text string, start int, token []rune) (int, bool) {
	i := start
	for _, want := range token {
		if i >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.ToLower(r) != want {
			return 0, false
		}
		i += size
	}
	return i, true
}
