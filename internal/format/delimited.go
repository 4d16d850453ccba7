package format

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"dragonmasher/internal/dataset"
)

// Delimited parses one row per line with fields split on a delimiter.
type Delimited struct {
	Headers   []string
	Key       int      // column holding the lookup key
	Exclude   []int    // columns dropped from the record
	Delimiter string   // defaults to ","
	Comments  []string // a row whose first field starts with one of these is skipped; defaults to "#"
	KeyFilter func(key string) bool
}

type row struct {
	line   int
	fields []string
}

func (d Delimited) delimiter() string {
	if d.Delimiter == "" {
		return ","
	}
	return d.Delimiter
}

func (d Delimited) comments() []string {
	if d.Comments == nil {
		return []string{"#"}
	}
	return d.Comments
}

// rows splits contents and returns the rows that pass the shape check,
// the comment markers and the key filter.
func (d Delimited) rows(name, contents string, stats *Stats) []row {
	var out []row
	for i, line := range lines(contents) {
		stats.Lines++
		if strings.TrimSpace(line) == "" {
			stats.Skipped++
			continue
		}

		fields := strings.Split(line, d.delimiter())
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		if hasCommentPrefix(fields[0], d.comments()) {
			stats.Skipped++
			continue
		}
		if len(fields) < len(d.Headers) {
			stats.malformed(name, i+1, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRow, len(fields), len(d.Headers)))
			continue
		}
		key := fields[d.Key]
		if key == "" {
			stats.malformed(name, i+1, fmt.Errorf("%w: empty key", ErrMalformedRow))
			continue
		}
		if d.KeyFilter != nil && !d.KeyFilter(key) {
			stats.Skipped++
			continue
		}
		out = append(out, row{line: i + 1, fields: fields[:len(d.Headers)]})
	}
	return out
}

func (d Delimited) build(rows []row, headers []string, prefix string, stats *Stats) dataset.Dataset {
	result := make(dataset.Dataset)
	for _, r := range rows {
		rec := make(dataset.Record, len(headers))
		for i, h := range headers {
			if i == d.Key || slices.Contains(d.Exclude, i) {
				continue
			}
			rec[prefix+h] = dataset.Scalar(r.fields[i])
		}
		dataset.Update(result, dataset.Dataset{r.fields[d.Key]: rec})
		stats.Rows++
	}
	return result
}

func (d Delimited) ParseFile(name, contents, prefix string) (dataset.Dataset, Stats) {
	stats := Stats{Files: 1}
	rows := d.rows(name, contents, &stats)
	return d.build(rows, d.Headers, prefix, &stats), stats
}

// Ranked is a Delimited format whose rows are ranked by a count column.
// The rank is stored as a synthesized "number" attribute, 1 for the highest count.
type Ranked struct {
	Delimited
	Count int
}

func (r Ranked) ParseFile(name, contents, prefix string) (dataset.Dataset, Stats) {
	stats := Stats{Files: 1}
	rows := r.rows(name, contents, &stats)

	slices.SortStableFunc(rows, func(a, b row) int {
		return cmp.Compare(count(b.fields[r.Count]), count(a.fields[r.Count]))
	})
	for i := range rows {
		rows[i].fields = append(rows[i].fields, strconv.Itoa(i+1))
	}

	headers := append(slices.Clone(r.Headers), "number")
	return r.build(rows, headers, prefix, &stats), stats
}

// count parses a count field; anything unparsable ranks as zero.
func count(s string) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}
