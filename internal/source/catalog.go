package source

import (
	"fmt"
	"slices"
	"strings"

	"dragonmasher/internal/format"
)

var (
	subtlexHeaders = []string{
		"word", "length", "pinyin", "pinyin.input", "wcount", "w.million",
		"log10w", "w-cd", "w-cd%", "log10cd", "dominant.pos",
		"dominant.pos.freq", "all.pos", "all.pos.freq", "english",
	}
	jundaHeaders = []string{"number", "character", "count", "percentile", "pinyin", "definition"}
	lwcHeaders   = []string{"word-id", "word", "reverse-of-word", "count"}
)

// JunDaLists are the corpora of Jun Da's character frequency lists:
// modern, classical and imaginative writing.
var JunDaLists = []string{"MO", "CL", "IM"}

const jundaURL = "http://lingua.mtsu.edu/chinese-computing/statistics/char/download.php?Which="

var catalog = []Descriptor{
	{
		Name:        "HSK",
		Description: "Hanyu Shuiping Kaoshi vocabulary levels (bundled excerpt)",
		Files:       []string{"hsk.csv"},
		Format:      format.Delimited{Headers: []string{"word", "level"}},
	},
	{
		Name:        "TOCFL",
		Description: "Test of Chinese as a Foreign Language vocabulary (bundled excerpt)",
		Files:       []string{"tocfl.csv"},
		Format:      format.Delimited{Headers: []string{"word", "level", "pos", "category"}},
	},
	{
		Name:        "XDCYZ",
		Description: "Xiandai Hanyu Changyong Zi character list (bundled excerpt)",
		Files:       []string{"xdcyz.csv"},
		Format:      format.Delimited{Headers: []string{"character", "level", "strokes"}},
	},
	{
		Name:        "SUBTLEX",
		Description: "SUBTLEX-CH film subtitle word frequencies",
		URL:         "http://expsy.ugent.be/subtlex-ch/SUBTLEX_CH_131210_CE.utf8.zip",
		Archive:     true,
		Whitelist:   []string{"SUBTLEX_CH_131210_CE.utf8"},
		Format: format.Ranked{
			Delimited: format.Delimited{
				Headers:   subtlexHeaders,
				Exclude:   []int{14},
				Delimiter: "\t",
				Comments:  []string{"Word", "#"},
				KeyFilter: format.HasIdeograph,
			},
			Count: 4,
		},
	},
	{
		Name:        "LWC",
		Description: "Lancaster-Los Angeles Written Chinese corpus word frequencies",
		URL:         "http://www.lancaster.ac.uk/fass/projects/corpus/LCMC/lwc/words.txt",
		Format: format.Ranked{
			Delimited: format.Delimited{
				Headers:   lwcHeaders,
				Key:       1,
				Exclude:   []int{2},
				Delimiter: "\t",
				KeyFilter: format.HasIdeograph,
			},
			Count: 3,
		},
	},
	{
		Name:        "CEDICT",
		Description: "CC-CEDICT Chinese-English dictionary",
		URL:         "https://www.mdbg.net/chinese/export/cedict/cedict_1_0_ts_utf-8_mdbg.zip",
		Archive:     true,
		Whitelist:   []string{"cedict_ts.u8"},
		Format:      format.CEDICT{},
	},
	{
		Name:        "UNIHAN",
		Description: "Unicode Han database",
		URL:         "http://www.unicode.org/Public/UNIDATA/Unihan.zip",
		Archive:     true,
		Format:      format.Unihan{},
	},
}

// JunDa describes one of Jun Da's character frequency lists.
func JunDa(which string) (Descriptor, error) {
	which = strings.ToUpper(which)
	if !slices.Contains(JunDaLists, which) {
		return Descriptor{}, fmt.Errorf("unknown Jun Da list %q, want one of %s", which, strings.Join(JunDaLists, ", "))
	}
	return Descriptor{
		Name:        "JUNDA-" + which,
		Description: "Jun Da character frequencies (" + which + ")",
		URL:         jundaURL + which,
		Format: format.Delimited{
			Headers:   jundaHeaders,
			Key:       1,
			Exclude:   []int{4, 5},
			Delimiter: "\t",
			Comments:  []string{"/*", "#"},
			KeyFilter: format.HasIdeograph,
		},
	}, nil
}

// Lookup returns the descriptor for name, ignoring case.
func Lookup(name string) (Descriptor, error) {
	name = strings.ToUpper(name)
	for _, d := range catalog {
		if d.Name == name {
			return d, nil
		}
	}
	if which, ok := strings.CutPrefix(name, "JUNDA-"); ok {
		return JunDa(which)
	}
	return Descriptor{}, fmt.Errorf("unknown source %q", name)
}

// Names lists every catalog source in display order.
func Names() []string {
	names := make([]string, 0, len(catalog)+len(JunDaLists))
	for _, d := range catalog {
		names = append(names, d.Name)
	}
	for _, which := range JunDaLists {
		names = append(names, "JUNDA-"+which)
	}
	return names
}

// Catalog returns every known descriptor.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(catalog)+len(JunDaLists))
	for _, name := range Names() {
		d, _ := Lookup(name)
		out = append(out, d)
	}
	return out
}
