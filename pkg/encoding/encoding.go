// Package encoding normalizes legacy 8-bit Cyrillic input to UTF-8.
//
// Some clients of the generic API surface submit bodies or query values in
// Windows-1251 or CP866 without a correct charset declaration. This package
// decides between the two by decoding the bytes under both code pages and
// scoring each result; a declared non-UTF-8 charset short-circuits the
// detection, and bytes that already form valid UTF-8 are never re-decoded.
// The primary protocol surface is UTF-8 by contract and bypasses this
// package entirely.
package encoding

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Scoring weights for telling a correct decode from a wrong-codepage one.
// Box-drawing glyphs and the ∙/√ pair are what CP1251-encoded Cyrillic
// turns into when forced through CP866 and vice versa.
const (
	scoreCyrillic   = 2
	scoreBoxDrawing = -15
	scoreArtifact   = -5
)

// Normalize decodes raw to UTF-8 following the detection order: declared
// charset, UTF-8 fast path, then code-page scoring. It never fails; when
// detection is inconclusive the higher-scoring interpretation wins, with
// Windows-1251 preferred on a tie.
func Normalize(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}

	if cm := declaredCodePage(contentType); cm != nil {
		if out, err := cm.NewDecoder().Bytes(raw); err == nil && len(out) > 0 {
			return string(out)
		}
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	return bestDecode(raw)
}

// NormalizeQuery decodes every query value in place-order, returning a new
// map. Query values carry no charset declaration, so only the UTF-8 fast
// path and the scoring step apply.
func NormalizeQuery(values url.Values) map[string][]string {
	out := make(map[string][]string, len(values))
	for key, vs := range values {
		decoded := make([]string, len(vs))
		for i, v := range vs {
			decoded[i] = Normalize([]byte(v), "")
		}
		out[key] = decoded
	}
	return out
}

// declaredCodePage maps a Content-Type charset parameter to a supported
// legacy code page. UTF-8 and unknown charsets return nil.
func declaredCodePage(contentType string) *charmap.Charmap {
	switch extractCharset(contentType) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "cp866", "ibm866":
		return charmap.CodePage866
	default:
		return nil
	}
}

// extractCharset pulls the charset parameter out of a Content-Type value,
// lowercased, with surrounding quotes and whitespace stripped.
func extractCharset(contentType string) string {
	lower := strings.ToLower(contentType)
	idx := strings.Index(lower, "charset=")
	if idx < 0 {
		return ""
	}
	rest := lower[idx+len("charset="):]
	rest = strings.TrimLeft(rest, ` "'`)
	end := strings.IndexAny(rest, `; "'`)
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// bestDecode decodes raw under both candidate code pages and keeps the
// higher-scoring interpretation.
func bestDecode(raw []byte) string {
	d1251, err1251 := charmap.Windows1251.NewDecoder().Bytes(raw)
	d866, err866 := charmap.CodePage866.NewDecoder().Bytes(raw)

	// Single-byte decoders do not fail in practice; degrade to whichever
	// succeeded rather than failing the request.
	if err1251 != nil {
		return string(d866)
	}
	if err866 != nil {
		return string(d1251)
	}

	if cyrillicScore(string(d1251)) >= cyrillicScore(string(d866)) {
		return string(d1251)
	}
	return string(d866)
}

// cyrillicScore rates a decoded string: positive for recognized Russian
// Cyrillic letters, negative for characters typical of a wrong-codepage
// decode.
func cyrillicScore(s string) int {
	score := 0
	for _, r := range s {
		switch {
		case (r >= 0x0410 && r <= 0x044F) || r == 'Ё' || r == 'ё':
			score += scoreCyrillic
		case r >= 0x2500 && r <= 0x25FF:
			score += scoreBoxDrawing
		case r == '∙' || r == '√':
			score += scoreArtifact
		}
	}
	return score
}
