package encoding

import (
	"net/url"
	"testing"
)

// "Привет" in the two legacy code pages.
var (
	cp1251Privet = []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}
	cp866Privet  = []byte{0x8F, 0xE0, 0xA8, 0xA2, 0xA5, 0xE2}
)

func TestValidUTF8NeverRedecoded(t *testing.T) {
	in := "Привет, мир"
	if got := Normalize([]byte(in), ""); got != in {
		t.Errorf("Normalize(%q) = %q, want unchanged", in, got)
	}

	ascii := `{"query":"select"}`
	if got := Normalize([]byte(ascii), "application/json"); got != ascii {
		t.Errorf("Normalize(%q) = %q, want unchanged", ascii, got)
	}
}

func TestDeclaredCharsetWins(t *testing.T) {
	// "тест" in CP1251.
	raw := []byte{0xF2, 0xE5, 0xF1, 0xF2}
	got := Normalize(raw, `text/plain; charset=windows-1251`)
	if got != "тест" {
		t.Errorf("Normalize = %q, want %q", got, "тест")
	}

	// Same bytes with quoted charset and extra parameters.
	got = Normalize(raw, `application/json; charset="cp1251"; boundary=x`)
	if got != "тест" {
		t.Errorf("Normalize with quoted charset = %q, want %q", got, "тест")
	}
}

func TestDeclaredCP866(t *testing.T) {
	got := Normalize(cp866Privet, "text/plain; charset=ibm866")
	if got != "Привет" {
		t.Errorf("Normalize = %q, want %q", got, "Привет")
	}
}

func TestDeclaredUTF8UsesFastPath(t *testing.T) {
	in := "Ёлка"
	if got := Normalize([]byte(in), "text/plain; charset=utf-8"); got != in {
		t.Errorf("Normalize = %q, want %q", got, in)
	}
}

func TestScoringPicksCP1251(t *testing.T) {
	// CP1251 bytes decoded under CP866 produce box-drawing artifacts,
	// so the CP1251 interpretation scores higher.
	if got := Normalize(cp1251Privet, ""); got != "Привет" {
		t.Errorf("Normalize = %q, want %q", got, "Привет")
	}
}

func TestScoringPicksCP866(t *testing.T) {
	// CP866 bytes decoded under CP1251 yield mostly non-Russian letters,
	// so the CP866 interpretation scores higher.
	if got := Normalize(cp866Privet, ""); got != "Привет" {
		t.Errorf("Normalize = %q, want %q", got, "Привет")
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Normalize(nil, ""); got != "" {
		t.Errorf("Normalize(nil) = %q, want empty", got)
	}
}

func TestNormalizeQuery(t *testing.T) {
	values := url.Values{
		"name": []string{string(cp1251Privet), "plain"},
	}
	got := NormalizeQuery(values)
	if len(got["name"]) != 2 {
		t.Fatalf("value count = %d, want 2", len(got["name"]))
	}
	if got["name"][0] != "Привет" {
		t.Errorf("decoded value = %q, want %q", got["name"][0], "Привет")
	}
	if got["name"][1] != "plain" {
		t.Errorf("ascii value = %q, want unchanged", got["name"][1])
	}
}

func TestCyrillicScore(t *testing.T) {
	if s := cyrillicScore("Привет"); s != 12 {
		t.Errorf("score(Привет) = %d, want 12", s)
	}
	if s := cyrillicScore("║╚╝"); s >= 0 {
		t.Errorf("score(box drawing) = %d, want negative", s)
	}
	if s := cyrillicScore("∙√"); s != -10 {
		t.Errorf("score(artifacts) = %d, want -10", s)
	}
}

func TestExtractCharset(t *testing.T) {
	tests := []struct {
		ct   string
		want string
	}{
		{"text/plain; charset=windows-1251", "windows-1251"},
		{`text/plain; charset="cp866"`, "cp866"},
		{"text/plain; CHARSET=CP1251", "cp1251"},
		{"text/plain", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractCharset(tt.ct); got != tt.want {
			t.Errorf("extractCharset(%q) = %q, want %q", tt.ct, got, tt.want)
		}
	}
}
