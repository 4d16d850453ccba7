// Package pinyin converts numbered-tone pinyin ("chang2") to tone marks ("cháng").
package pinyin

import (
	"regexp"
	"strings"
	"unicode"
)

// syllableRe matches one numbered syllable. "u:" and "v" both spell ü.
var syllableRe = regexp.MustCompile(`(?i)[a-zü]+(?:u:[a-zü]*)?[1-5]`)

var marks = map[rune][4]rune{
	'a': {'ā', 'á', 'ǎ', 'à'},
	'e': {'ē', 'é', 'ě', 'è'},
	'i': {'ī', 'í', 'ǐ', 'ì'},
	'o': {'ō', 'ó', 'ǒ', 'ò'},
	'u': {'ū', 'ú', 'ǔ', 'ù'},
	'ü': {'ǖ', 'ǘ', 'ǚ', 'ǜ'},
	'A': {'Ā', 'Á', 'Ǎ', 'À'},
	'E': {'Ē', 'É', 'Ě', 'È'},
	'I': {'Ī', 'Í', 'Ǐ', 'Ì'},
	'O': {'Ō', 'Ó', 'Ǒ', 'Ò'},
	'U': {'Ū', 'Ú', 'Ǔ', 'Ù'},
	'Ü': {'Ǖ', 'Ǘ', 'Ǚ', 'Ǜ'},
}

// Syllable converts a single numbered syllable such as "lv4" or "lu:4".
// Input without a trailing tone digit is returned unchanged.
func Syllable(s string) string {
	if s == "" {
		return s
	}
	tone := s[len(s)-1]
	if tone < '1' || tone > '5' {
		return s
	}
	body := []rune(spellU(s[:len(s)-1]))
	if tone == '5' {
		return string(body)
	}

	pos := markPosition(body)
	if pos < 0 {
		return s
	}
	body[pos] = marks[body[pos]][tone-'1']
	return string(body)
}

// Convert rewrites every numbered syllable in s and leaves the rest alone.
func Convert(s string) string {
	return syllableRe.ReplaceAllStringFunc(s, Syllable)
}

func spellU(s string) string {
	s = strings.NewReplacer("u:", "ü", "U:", "Ü").Replace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case 'v':
			return 'ü'
		case 'V':
			return 'Ü'
		}
		return r
	}, s)
}

// markPosition picks the vowel carrying the tone mark: a or e if present,
// the o of "ou", otherwise the last vowel.
func markPosition(body []rune) int {
	last := -1
	for i, r := range body {
		switch unicode.ToLower(r) {
		case 'a', 'e':
			return i
		case 'o':
			if i+1 < len(body) && unicode.ToLower(body[i+1]) == 'u' {
				return i
			}
			last = i
		case 'i', 'u', 'ü':
			last = i
		}
	}
	return last
}
