package language

import (
	"errors"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{"vi", "vi"},
		// 3-letter codes convert
		{"vie", "vi"},
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"jpn", "ja"},
		{"chi", "zh"},
		// Word forms
		{"vietnamese", "vi"},
		{"French", "fr"},
		// Unknown 2-letter passes through
		{"xy", "xy"},
		// Unknown 3-letter returns empty
		{"xyz", ""},
		// Empty
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ToISO2(tt.input)
			if result != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsCaptionSuffix(t *testing.T) {
	for _, code := range []string{"vi", "EN", "jp", "ja", "hi"} {
		if !IsCaptionSuffix(code) {
			t.Errorf("IsCaptionSuffix(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"", "none", "xx", "eng", "part1"} {
		if IsCaptionSuffix(code) {
			t.Errorf("IsCaptionSuffix(%q) = true, want false", code)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("vi"); got != "Vietnamese" {
		t.Fatalf("DisplayName(vi) = %q", got)
	}
	if got := DisplayName("none"); got != "No language suffix" {
		t.Fatalf("DisplayName(none) = %q", got)
	}
	if got := DisplayName("xx"); got != "XX" {
		t.Fatalf("DisplayName(xx) = %q", got)
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"VI", "eng", "en", " ", "en-US", "vie"})
	want := []string{"vi", "en", "en-us"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePreferences(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"default order", "vi,en,none", "vi,en,none", false},
		{"spaces and case", " EN ; vi  NONE ", "en,vi,none", false},
		{"dedupes", "en,en,vi", "en,vi", false},
		{"region", "en-US,vi", "en-us,vi", false},
		{"empty", " , ", "", true},
		{"garbage", "en,english!", "", true},
		{"too long", "englishh", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePreferences(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPreference) {
					t.Fatalf("expected ErrInvalidPreference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePreferences(%q): %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Fatalf("ParsePreferences(%q) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}
