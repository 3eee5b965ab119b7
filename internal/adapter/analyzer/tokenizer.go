package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits prose into normalised terms for the local embedder and
// estimates model token counts for prompt budgeting.
type Tokenizer struct {
	useStem bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	return &Tokenizer{useStem: useStemming}
}

// Tokenize splits text into lowercase terms, dropping stopwords, possessive
// suffixes and single letters. Numbers are kept: years and figures are
// often what a question is about.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if _, isStop := stopwords[word]; isStop {
			continue
		}
		if t.useStem {
			word = Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate token count for LLM budget estimation.
// Subword tokenizers average about four characters per token on English
// prose; dense text with many short words is bounded by the word count instead.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	byWords := int(float64(len(words)) * 1.3)
	byChars := (utf8.RuneCountInString(text) + 3) / 4
	if byChars > byWords {
		return byChars
	}
	return byWords
}

// splitWords splits prose into words. An apostrophe between letters stays
// inside the word (don't, l'eau) and a trailing possessive 's is dropped;
// hyphens, underscores and all other punctuation separate words.
func splitWords(text string) []string {
	var words []string
	runes := []rune(text)
	start := -1

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if start < 0 {
				start = i
			}
		case isApostrophe(r) && start >= 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
		default:
			if start >= 0 {
				words = append(words, normalizeWord(runes[start:i]))
				start = -1
			}
		}
	}
	if start >= 0 {
		words = append(words, normalizeWord(runes[start:]))
	}

	return words
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func normalizeWord(w []rune) string {
	word := strings.ReplaceAll(string(w), "’", "'")
	if n := len(word); n > 2 && (word[n-2:] == "'s" || word[n-2:] == "'S") {
		word = word[:n-2]
	}
	return word
}

// stopwords are function words and contractions that carry no topic.
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "nor", "so", "yet",
		"of", "in", "on", "at", "by", "for", "from", "to", "into", "onto",
		"with", "without", "about", "over", "under", "between", "through",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"has", "have", "had", "do", "does", "did", "will", "would",
		"can", "could", "shall", "should", "may", "might", "must",
		"i", "me", "my", "we", "our", "you", "your", "he", "him", "his",
		"she", "her", "it", "its", "they", "them", "their",
		"this", "that", "these", "those", "there", "here",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"all", "any", "each", "every", "both", "few", "more", "most",
		"other", "some", "such", "than", "too", "very", "just", "also",
		"not", "no", "if", "then", "as",
		"don't", "doesn't", "didn't", "isn't", "aren't", "wasn't", "weren't",
		"can't", "won't", "it's", "i'm", "i've", "you're", "they're", "there's",
		"tell", "please",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
