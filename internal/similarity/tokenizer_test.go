package similarity

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits punctuation",
			text: "Learn Python: The Complete Guide!",
			want: []string{"learn", "python", "complete", "guide"},
		},
		{
			name: "drops stop words",
			text: "the quick and the dead",
			want: []string{"quick", "dead"},
		},
		{
			name: "drops single characters",
			text: "a b c trading",
			want: []string{"trading"},
		},
		{
			name: "keeps digits",
			text: "Web Development 2024 HTML5",
			want: []string{"web", "development", "2024", "html5"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "punctuation only",
			text: "!!! --- ???",
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
