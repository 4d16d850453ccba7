package pinyin

import "testing"

func TestSyllable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chang2", "cháng"},
		{"hao3", "hǎo"},
		{"gou3", "gǒu"},
		{"liu2", "liú"},
		{"gui4", "guì"},
		{"lv4", "lǜ"},
		{"lu:4", "lǜ"},
		{"nve4", "nüè"},
		{"ma5", "ma"},
		{"er2", "ér"},
		{"Zhong1", "Zhōng"},
		{"r5", "r"},
		{"m2", "m2"},
		{"xx", "xx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Syllable(tt.in); got != tt.want {
				t.Errorf("Syllable(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"zhong1guo2", "zhōngguó"},
		{"Zhong1 guo2", "Zhōng guó"},
		{"see 長城|长城[Chang2 cheng2]", "see 長城|长城[Cháng chéng]"},
		{"no tones here", "no tones here"},
		{"7.18 percent", "7.18 percent"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Convert(tt.in); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
