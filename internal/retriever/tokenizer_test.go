package retriever

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "korean bigrams",
			input: "자료구조",
			want:  []string{"자", "자료", "료", "료구", "구", "구조", "조"},
		},
		{
			name:  "latin words lowercased",
			input: "Data Structures",
			want:  []string{"data", "structures"},
		},
		{
			name:  "mixed korean and latin",
			input: "AI 인공지능",
			want:  []string{"ai", "인", "인공", "공", "공지", "지", "지능", "능"},
		},
		{
			name:  "punctuation separates words",
			input: "게임/그래픽스",
			want:  []string{"게", "게임", "임", "그", "그래", "래", "래픽", "픽", "픽스", "스"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "digits kept",
			input: "cs101",
			want:  []string{"cs101"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCJK(t *testing.T) {
	t.Parallel()
	for _, r := range "한글漢字ひらカナ" {
		if !isCJK(r) {
			t.Errorf("isCJK(%c) = false, want true", r)
		}
	}
	for _, r := range "abc123!? " {
		if isCJK(r) {
			t.Errorf("isCJK(%c) = true, want false", r)
		}
	}
}
