package format

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"dragonmasher/internal/dataset"

	"github.com/google/go-cmp/cmp"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestDelimitedExclude(t *testing.T) {
	f := Delimited{Headers: []string{"Letter", "Number", "Foo"}, Exclude: []int{2}}
	got, stats := f.ParseFile("foo.txt", "a,1,bar\nb,2,bar\nc,3,bar\nd,4,bar\n", "CSV-")

	want := dataset.Dataset{
		"a": {"CSV-Number": dataset.Scalar("1")},
		"b": {"CSV-Number": dataset.Scalar("2")},
		"c": {"CSV-Number": dataset.Scalar("3")},
		"d": {"CSV-Number": dataset.Scalar("4")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseFile() mismatch (-want +got):\n%s", diff)
	}
	if stats.Rows != 4 || stats.Lines != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestDelimitedSkipsCommentsAndMalformedRows(t *testing.T) {
	f := Delimited{Headers: []string{"word", "level"}}
	contents := "#word,level\n便宜,2\n\n坏\n好, 1 \n好,2\n"

	got, stats := f.ParseFile("hsk.csv", contents, "HSK-")

	want := dataset.Dataset{
		"便宜": {"HSK-level": dataset.Scalar("2")},
		"好":  {"HSK-level": dataset.List("1", "2")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseFile() mismatch (-want +got):\n%s", diff)
	}
	if stats.Skipped != 2 || stats.Malformed != 1 || stats.Rows != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	problem := stats.Problems[0]
	if !errors.Is(problem, ErrMalformedRow) || problem.Line != 4 || problem.File != "hsk.csv" {
		t.Fatalf("unexpected problem %v", problem)
	}
}

func TestRankedOrdersByCount(t *testing.T) {
	f := Ranked{
		Delimited: Delimited{Headers: []string{"word", "count"}, Delimiter: "\t"},
		Count:     1,
	}
	got, _ := f.ParseFile("counts.txt", "甲\t10\n乙\t30\n丙\t20\n", "X-")

	for key, want := range map[string]string{"甲": "2", "乙": "1", "丙": "3"} {
		if v := got[key]["X-number"]; !v.Equal(dataset.Scalar(want)) {
			t.Errorf("%s number = %v, want %s", key, v, want)
		}
	}
}

func TestRankedTiesKeepRowOrder(t *testing.T) {
	f := Ranked{
		Delimited: Delimited{Headers: []string{"word", "count"}, Delimiter: "\t"},
		Count:     1,
	}
	got, _ := f.ParseFile("ties.txt", "甲\t5\n乙\t9\n丙\t5\n丁\tn/a\n", "X-")

	want := map[string]string{"乙": "1", "甲": "2", "丙": "3", "丁": "4"}
	for key, n := range want {
		if v := got[key]["X-number"]; !v.Equal(dataset.Scalar(n)) {
			t.Errorf("%s number = %v, want %s", key, v, n)
		}
	}
}

func TestSUBTLEXWords(t *testing.T) {
	headers := []string{
		"word", "length", "pinyin", "pinyin.input", "wcount", "w.million",
		"log10w", "w-cd", "w-cd%", "log10cd", "dominant.pos",
		"dominant.pos.freq", "all.pos", "all.pos.freq", "english",
	}
	f := Ranked{
		Delimited: Delimited{
			Headers:   headers,
			Exclude:   []int{14},
			Delimiter: "\t",
			Comments:  []string{"Word", "#"},
			KeyFilter: HasIdeograph,
		},
		Count: 4,
	}

	got, stats := f.ParseFile("subtlex_words_test.txt", testdata(t, "subtlex_words_test.txt"), "SUBTLEX-")
	if len(got) != 4 {
		t.Fatalf("expected 4 words, got %v", got.Keys())
	}
	de := got["的"]
	if !de["SUBTLEX-length"].Equal(dataset.Scalar("1")) || !de["SUBTLEX-number"].Equal(dataset.Scalar("1")) {
		t.Fatalf("unexpected record for 的: %v", de)
	}
	if _, ok := de["SUBTLEX-english"]; ok {
		t.Fatalf("english column should be excluded")
	}
	if stats.Skipped != 2 {
		t.Fatalf("expected header and latin row to be skipped, got %+v", stats)
	}
}

func TestJunDa(t *testing.T) {
	f := Delimited{
		Headers:   []string{"number", "character", "count", "percentile", "pinyin", "definition"},
		Key:       1,
		Exclude:   []int{4, 5},
		Delimiter: "\t",
		Comments:  []string{"/*", "#"},
		KeyFilter: HasIdeograph,
	}

	got, _ := f.ParseFile("junda_test.txt", testdata(t, "junda_test.txt"), "JUNDA-IM-")
	if len(got) != 5 {
		t.Fatalf("expected 5 characters, got %v", got.Keys())
	}
	if v := got["的"]["JUNDA-IM-number"]; !v.Equal(dataset.Scalar("1")) {
		t.Fatalf("的 number = %v", v)
	}
	le := got["了"]
	if v := le["JUNDA-IM-percentile"]; !v.Equal(dataset.Scalar("7.18753757539")) {
		t.Fatalf("了 percentile = %v", v)
	}
	for _, name := range []string{"JUNDA-IM-pinyin", "JUNDA-IM-definition", "JUNDA-IM-character"} {
		if _, ok := le[name]; ok {
			t.Fatalf("%s should not be present", name)
		}
	}
}

func TestLWCWords(t *testing.T) {
	f := Ranked{
		Delimited: Delimited{
			Headers:   []string{"word-id", "word", "reverse-of-word", "count"},
			Key:       1,
			Exclude:   []int{2},
			Delimiter: "\t",
			KeyFilter: HasIdeograph,
		},
		Count: 3,
	}

	got, _ := f.ParseFile("lwc_words_test.txt", testdata(t, "lwc_words_test.txt"), "LWC-")
	want := dataset.Dataset{
		"揭露": {
			"LWC-word-id": dataset.Scalar("33"),
			"LWC-count":   dataset.Scalar("318"),
			"LWC-number":  dataset.Scalar("1"),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestCEDICT(t *testing.T) {
	got, stats := CEDICT{}.ParseFile("cedict_test.txt", testdata(t, "cedict_test.txt"), "CEDICT-")

	if diff := cmp.Diff([]string{"钃", "長", "长"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	long := dataset.EntryList(dataset.Entry{
		Traditional: "長",
		Simplified:  "长",
		Pinyin:      "cháng",
		Definitions: []string{"length", "long", "forever", "always", "constantly"},
	})
	if diff := cmp.Diff(long, got["長"]["CEDICT-entry"]); diff != "" {
		t.Fatalf("長 entry mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(long, got["长"]["CEDICT-entry"]); diff != "" {
		t.Fatalf("长 entry mismatch (-want +got):\n%s", diff)
	}
	if p := got["钃"]["CEDICT-entry"].Items[0].Entry.Pinyin; p != "shǔ" {
		t.Fatalf("钃 pinyin = %q", p)
	}

	if stats.Malformed != 1 || !errors.Is(stats.Problems[0], ErrUnparsableLine) {
		t.Fatalf("expected one unparsable line, got %+v", stats)
	}
}

func TestCEDICTNormalizesPronunciation(t *testing.T) {
	contents := "中國 中国 [Zhong1 guo2] /China/\n" +
		"綠 绿 [lu:4] /green/\n" +
		"長城 长城 [Chang2 cheng2] /the Great Wall/see also 萬里長城|万里长城[Wan4 li3 Chang2 cheng2]/\n"

	got, _ := CEDICT{}.ParseFile("cedict.u8", contents, "CEDICT-")

	if p := got["中国"]["CEDICT-entry"].Items[0].Entry.Pinyin; p != "Zhōngguó" {
		t.Errorf("中国 pinyin = %q", p)
	}
	if p := got["绿"]["CEDICT-entry"].Items[0].Entry.Pinyin; p != "lǜ" {
		t.Errorf("绿 pinyin = %q", p)
	}
	defs := got["長城"]["CEDICT-entry"].Items[0].Entry.Definitions
	want := []string{"the Great Wall", "see also 萬里長城|万里长城[WànlǐChángchéng]"}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Errorf("definitions mismatch (-want +got):\n%s", diff)
	}
}

func TestUnihan(t *testing.T) {
	f := Unihan{}
	result := make(dataset.Dataset)
	for _, name := range []string{"unihan_variants_test.txt", "unihan_readings_test.txt"} {
		got, _ := f.ParseFile(name, testdata(t, name), "UNIHAN-")
		dataset.Update(result, got)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 characters, got %v", result.Keys())
	}
	want := dataset.Record{
		"UNIHAN-kSimplifiedVariant": dataset.Scalar("刾"),
		"UNIHAN-kMandarin":          dataset.Scalar("cí"),
		"UNIHAN-kCantonese":         dataset.Scalar("ci3"),
	}
	if diff := cmp.Diff(want, result["㓨"]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if v := result["乾"]["UNIHAN-kSemanticVariant"]; !v.Equal(dataset.Scalar("干<kMatthews 漧<kLau")) {
		t.Fatalf("kSemanticVariant = %v", v)
	}
}

func TestUnihanSameCharacterTwoFields(t *testing.T) {
	got, _ := Unihan{}.ParseFile("readings.txt", "U+3450\tkMandarin\tci2\nU+3450\tkCantonese\tci3\n", "UNIHAN-")
	rec := got["㑐"]
	if len(got) != 1 || len(rec) != 2 {
		t.Fatalf("expected one record with two attributes, got %v", got)
	}
}

func TestHexToChar(t *testing.T) {
	got, err := HexToChar("U+34E8")
	if err != nil || got != "㓨" {
		t.Fatalf("HexToChar = %q, %v", got, err)
	}
	if _, err := HexToChar("34E8"); err == nil {
		t.Fatalf("expected error without U+ prefix")
	}
	if got := ReplaceHex("U+34E8 and U+523E"); got != "㓨 and 刾" {
		t.Fatalf("ReplaceHex = %q", got)
	}
}
