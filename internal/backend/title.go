package backend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"cupspdf/internal/config"
)

// maxTitleBytes leaves room for the extension under the common 255 byte
// NAME_MAX.
const maxTitleBytes = 200

// FileName returns the destination file name for a job title under the
// configured policy. The preserve policy interpolates the title verbatim,
// path separators included.
func FileName(title string, out config.Output) string {
	if out.TitlePolicy == config.TitlePolicyPreserve {
		return title + out.Extension
	}
	return SanitizeTitle(title, out.Extension, out.FallbackTitle) + out.Extension
}

// SanitizeTitle turns an arbitrary job title into a single safe path
// component: NFC-normalized, without separators or control characters, not
// hidden, and without a trailing copy of ext.
func SanitizeTitle(title, ext, fallback string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range norm.NFC.String(title) {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case r == utf8.RuneError, unicode.IsControl(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := trimName(b.String())

	if ext != "" && len(out) > len(ext) && strings.EqualFold(out[len(out)-len(ext):], ext) {
		out = trimName(out[:len(out)-len(ext)])
	}

	out = trimName(truncateUTF8(out, maxTitleBytes))
	if out == "" {
		return fallback
	}
	return out
}

func trimName(s string) string {
	return strings.Trim(s, " . ")
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
