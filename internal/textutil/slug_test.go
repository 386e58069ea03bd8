package textutil

import (
	"strings"
	"testing"
)

func TestNormalizeForCompare(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "unknown"},
		{"only punctuation", "!!! ... ???", "unknown"},
		{"lowercases", "Hello World", "hello world"},
		{"strips vietnamese diacritics", "Phật Học Căn Bản", "phat hoc can ban"},
		{"strips accents", "Café Crème", "cafe creme"},
		{"collapses punctuation runs", "A -- B__C...D", "a b c d"},
		{"compatibility forms", "ＦＵＬＬ ｗｉｄｔｈ ①", "full width 1"},
		{"trims", "   spaced   out   ", "spaced out"},
		{"keeps digits", "Episode 12 (Part 3)", "episode 12 part 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForCompare(tt.input); got != tt.want {
				t.Errorf("NormalizeForCompare(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeForCompareIdempotentAndAlphabet(t *testing.T) {
	inputs := []string{
		"",
		"unknown",
		"Bài giảng số 1: Tứ Diệu Đế",
		"İstanbul ß Æsir",
		"日本語のタイトル",
		"tab\tand\nnewline",
		"a/b\\c:d*e?f\"g<h>i|j",
		"  --  ",
	}
	for _, input := range inputs {
		once := NormalizeForCompare(input)
		twice := NormalizeForCompare(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", input, once, twice)
		}
		if once == "" {
			t.Errorf("empty result for %q", input)
		}
		for _, r := range once {
			if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != ' ' {
				t.Errorf("NormalizeForCompare(%q) = %q contains %q", input, once, r)
			}
		}
		if strings.Contains(once, "  ") {
			t.Errorf("NormalizeForCompare(%q) = %q contains a double space", input, once)
		}
	}
}

func TestSameTitle(t *testing.T) {
	if !SameTitle("Phật Pháp: Bài 1", "phat phap bai 1") {
		t.Fatal("expected titles to compare equal")
	}
	if SameTitle("Lesson 1", "Lesson 2") {
		t.Fatal("expected distinct titles to differ")
	}
}

func TestFriendlyStem(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "unknown"},
		{"only illegal", `<>:"/\|?*`, "unknown"},
		{"replaces illegal runs", `What? Why: How/When`, "What Why How When"},
		{"strips trailing dots", "Ends with dots...", "Ends with dots"},
		{"strips trailing dot after replacement", "Question.?", "Question"},
		{"keeps diacritics", "Phật Học", "Phật Học"},
		{"collapses whitespace", "a    b\t\tc", "a b c"},
		{"control characters", "bell\x07here", "bell here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FriendlyStem(tt.input); got != tt.want {
				t.Errorf("FriendlyStem(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFriendlyStemStable(t *testing.T) {
	input := "  Bài 3: Nhân quả / nghiệp báo?  "
	first := FriendlyStem(input)
	for i := 0; i < 3; i++ {
		if got := FriendlyStem(input); got != first {
			t.Fatalf("FriendlyStem not stable: %q vs %q", got, first)
		}
	}
	if strings.ContainsAny(first, `<>:"/\|?*`) {
		t.Fatalf("FriendlyStem left illegal characters: %q", first)
	}
}
