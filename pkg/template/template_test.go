package template

import "testing"

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values map[string]string
		want   string
	}{
		{
			name:   "simple placeholder",
			text:   "Hello, $name!",
			values: map[string]string{"name": "Dingus"},
			want:   "Hello, Dingus!",
		},
		{
			name:   "escaped dollar suppresses substitution",
			text:   `You are \$age years old.`,
			values: map[string]string{"age": "100"},
			want:   "You are $age years old.",
		},
		{
			name:   "hyphen terminates the name",
			text:   "$first_name-the-$last_name",
			values: map[string]string{"first_name": "A", "last_name": "B"},
			want:   "A-the-B",
		},
		{
			name:   "unknown placeholder left untouched",
			text:   "deploy to $env now",
			values: map[string]string{"region": "west"},
			want:   "deploy to $env now",
		},
		{
			name:   "adjacent literal text preserved",
			text:   "img-$tag.tar.gz",
			values: map[string]string{"tag": "v3"},
			want:   "img-v3.tar.gz",
		},
		{
			name:   "bare dollar at end of text",
			text:   "costs 5$",
			values: map[string]string{"5": "x"},
			want:   "costs 5$",
		},
		{
			name:   "dollar before non-name character",
			text:   "a $! b",
			values: map[string]string{},
			want:   "a $! b",
		},
		{
			name:   "underscores and digits are name characters",
			text:   "$v_2x",
			values: map[string]string{"v_2x": "ok"},
			want:   "ok",
		},
		{
			name:   "consecutive placeholders",
			text:   "$a$b",
			values: map[string]string{"a": "1", "b": "2"},
			want:   "12",
		},
		{
			name:   "backslash without dollar kept verbatim",
			text:   `path\to\$here`,
			values: map[string]string{"here": "X"},
			want:   `path\to$here`,
		},
		{
			name:   "empty text",
			text:   "",
			values: map[string]string{"a": "1"},
			want:   "",
		},
		{
			name:   "no placeholders",
			text:   "plain text",
			values: map[string]string{"plain": "x"},
			want:   "plain text",
		},
		{
			name:   "value may itself contain a dollar",
			text:   "run $cmd",
			values: map[string]string{"cmd": "echo $HOME"},
			want:   "run echo $HOME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Substitute(tt.text, tt.values)
			if got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
