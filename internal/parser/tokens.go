package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/seoscan/internal/model"
)

// wordPattern matches runs of two or more letters, numerics or underscores.
// Combining marks split words.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize returns the lowercased words of text. This is the unfiltered
// stream used for n-grams and word counts.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// FilterStopwords drops English stopwords from tokens.
func FilterStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// NGrams returns the space-joined sliding windows of size n over tokens.
// Fewer than n tokens yield an empty slice.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return []string{}
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// Count returns the frequency of each term.
func Count(terms []string) map[string]int {
	m := make(map[string]int, len(terms))
	for _, t := range terms {
		m[t]++
	}
	return m
}

// TopKeywords returns at most limit entries with a positive count, ordered
// by count descending and then by term descending.
func TopKeywords(counts map[string]int, limit int) []model.Keyword {
	out := make([]model.Keyword, 0, len(counts))
	for term, c := range counts {
		if c > 0 {
			out = append(out, model.Keyword{Term: term, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term > out[j].Term
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
