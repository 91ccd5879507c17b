package security

import "testing"

func TestSanitizeText_StripsHTML(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		input string
		want  string
	}{
		{"山田 太郎", "山田 太郎"},
		{"<script>alert(1)</script>山田", "山田"},
		{"<b>太字</b>は許可しない", "太字は許可しない"},
		{"  前後の空白  ", "前後の空白"},
		{`<a href="https://evil.example">リンク</a>`, "リンク"},
	}

	for _, tt := range tests {
		if got := s.SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeOptional_PreservesNil(t *testing.T) {
	s := NewSanitizer()

	if got := s.SanitizeOptional(nil); got != nil {
		t.Errorf("SanitizeOptional(nil) = %v, want nil", got)
	}

	dirty := "<i>AB</i>型"
	got := s.SanitizeOptional(&dirty)
	if got == nil || *got != "AB型" {
		t.Errorf("SanitizeOptional = %v, want AB型", got)
	}
}
