package analyzer

import "strings"

// Stem strips common English inflections (plurals, -ing, -ed) so that
// "capitals" and "capital" land on the same term. It is deliberately light:
// derivational suffixes are left alone.
func Stem(word string) string {
	if len(word) <= 3 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}

	for _, suffix := range []string{"ing", "ed"} {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		stem := word[:len(word)-len(suffix)]
		if len(stem) < 3 || !hasVowel(stem) {
			return word
		}
		return undouble(stem)
	}

	return word
}

func hasVowel(s string) bool {
	return strings.ContainsAny(s, "aeiouy")
}

// undouble trims a doubled final consonant: "runn" -> "run".
func undouble(stem string) string {
	n := len(stem)
	if n < 2 || stem[n-1] != stem[n-2] {
		return stem
	}
	switch stem[n-1] {
	case 'l', 's', 'z', 'a', 'e', 'i', 'o', 'u':
		return stem
	}
	return stem[:n-1]
}
