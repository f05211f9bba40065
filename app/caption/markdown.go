package caption

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
)

// Characters that carry meaning in Telegram MarkdownV2 outside of entities.
const specialChars = "_*[]()~`>#+-=|{}.!"

var escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*(len(specialChars)+1))
	pairs = append(pairs, `\`, `\\`)
	for _, c := range specialChars {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// linkEscaper escapes the characters that are significant inside the (...)
// part of an inline link.
var linkEscaper = strings.NewReplacer(`\`, `\\`, `)`, `\)`)

// Escape backslash-escapes every MarkdownV2 special character in s.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func link(text, target string) string {
	return "[" + Escape(text) + "](" + linkEscaper.Replace(target) + ")"
}

func bold(escaped string) string {
	return "*" + escaped + "*"
}

func spoiler(escaped string) string {
	return "||" + escaped + "||"
}

// Fingerprint hashes rendered text case-insensitively.
func Fingerprint(text string) string {
	sum := sha1.Sum([]byte(cases.Fold().String(text)))
	return hex.EncodeToString(sum[:])
}
