package retrieval

import (
	"strings"
	"unicode"
)

// #region keywords
// stopwords contains common English words excluded from keyword extraction.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true, "tell": true, "find": true, "show": true, "give": true,
	"want": true, "need": true, "know": true, "like": true, "also": true,
	"just": true, "more": true, "most": true, "some": true, "such": true,
	"there": true, "their": true, "these": true, "those": true,
}

// ExtractKeywords splits a free-text query into unique lowercase keywords,
// dropping stopwords and anything shorter than four letters. Order of first
// appearance is preserved.
func ExtractKeywords(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range words {
		if len(w) <= 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// #endregion keywords
