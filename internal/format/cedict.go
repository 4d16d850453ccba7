package format

import (
	"fmt"
	"regexp"
	"strings"

	"dragonmasher/internal/dataset"
	"dragonmasher/internal/pinyin"
)

var (
	// TRAD SIMP [PINYIN] /DEF1/DEF2/.../
	cedictLineRe = regexp.MustCompile(`^(\S+)\s+(\S+)\s+\[([^\]]*)\]\s+/(.*)/\s*$`)
	bracketRe    = regexp.MustCompile(`\[([^\]]*)\]`)
	numberedRe   = regexp.MustCompile(`^[A-Za-zv]+[1-5]$`)
)

// CEDICT parses CC-CEDICT dictionary files. Each line becomes one Entry
// stored under the "entry" attribute and indexed under both headwords.
type CEDICT struct {
	Comments []string // defaults to "#"
}

func (c CEDICT) ParseFile(name, contents, prefix string) (dataset.Dataset, Stats) {
	comments := c.Comments
	if comments == nil {
		comments = []string{"#"}
	}

	stats := Stats{Files: 1}
	result := make(dataset.Dataset)
	for i, line := range lines(contents) {
		stats.Lines++
		if strings.TrimSpace(line) == "" || hasCommentPrefix(line, comments) {
			stats.Skipped++
			continue
		}

		fields := splitEntry(line)
		if len(fields) != 4 {
			stats.malformed(name, i+1, fmt.Errorf("%w: %q", ErrUnparsableLine, line))
			continue
		}

		entry := dataset.Entry{
			Traditional: fields[0],
			Simplified:  fields[1],
			Pinyin:      Pronunciation(fields[2]),
			Definitions: definitions(fields[3]),
		}
		rec := dataset.Record{prefix + "entry": dataset.EntryList(entry)}
		dataset.Update(result, dataset.Dataset{entry.Traditional: rec})
		if entry.Simplified != entry.Traditional {
			dataset.Update(result, dataset.Dataset{entry.Simplified: rec})
		}
		stats.Rows++
	}
	return result, stats
}

// splitEntry returns the four raw fields of a dictionary line, or the whole
// line as a single field when it does not match the grammar.
func splitEntry(line string) []string {
	m := cedictLineRe.FindStringSubmatch(line)
	if m == nil {
		return []string{line}
	}
	return m[1:]
}

// Pronunciation normalizes numbered pinyin: "u:" becomes "v", runs of
// numbered syllables are joined and tone numbers become tone marks.
func Pronunciation(s string) string {
	s = strings.ReplaceAll(s, "u:", "v")
	s = strings.ReplaceAll(s, "U:", "V")
	return pinyin.Convert(joinSyllables(s))
}

func joinSyllables(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(tokens[0])
	for i := 1; i < len(tokens); i++ {
		if !numberedRe.MatchString(tokens[i-1]) || !numberedRe.MatchString(tokens[i]) {
			b.WriteByte(' ')
		}
		b.WriteString(tokens[i])
	}
	return b.String()
}

func definitions(s string) []string {
	s = bracketRe.ReplaceAllStringFunc(s, func(m string) string {
		return "[" + Pronunciation(m[1:len(m)-1]) + "]"
	})
	return strings.Split(s, "/")
}
