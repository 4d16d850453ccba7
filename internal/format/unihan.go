package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"dragonmasher/internal/dataset"
)

var hexRe = regexp.MustCompile(`U\+[0-9A-Fa-f]{4,6}`)

// HexToChar converts a codepoint written as "U+34E8" to its character.
func HexToChar(h string) (string, error) {
	digits, ok := strings.CutPrefix(strings.TrimSpace(h), "U+")
	if !ok {
		return "", fmt.Errorf("codepoint %q lacks the U+ prefix", h)
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return "", fmt.Errorf("codepoint %q: %w", h, err)
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return "", fmt.Errorf("codepoint %q is not a valid character", h)
	}
	return string(r), nil
}

// ReplaceHex converts every U+XXXX codepoint inside s to its character.
func ReplaceHex(s string) string {
	return hexRe.ReplaceAllStringFunc(s, func(h string) string {
		c, err := HexToChar(h)
		if err != nil {
			return h
		}
		return c
	})
}

// Unihan parses the Unicode Han database tables: CODEPOINT<TAB>FIELD<TAB>VALUE.
type Unihan struct{}

func (Unihan) ParseFile(name, contents, prefix string) (dataset.Dataset, Stats) {
	stats := Stats{Files: 1}
	result := make(dataset.Dataset)
	for i, line := range lines(contents) {
		stats.Lines++
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			stats.Skipped++
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 || fields[1] == "" {
			stats.malformed(name, i+1, fmt.Errorf("%w: want CODEPOINT, FIELD and VALUE", ErrMalformedRow))
			continue
		}
		char, err := HexToChar(fields[0])
		if err != nil {
			stats.malformed(name, i+1, fmt.Errorf("%w: %v", ErrMalformedRow, err))
			continue
		}

		rec := dataset.Record{prefix + fields[1]: dataset.Scalar(ReplaceHex(strings.TrimSpace(fields[2])))}
		dataset.Update(result, dataset.Dataset{char: rec})
		stats.Rows++
	}
	return result, stats
}
