// Package line implements the wire form of chat messages:
// one UTF-8 line per message, terminated with CR LF.
package line

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Terminator - line terminator written to the wire.
	Terminator = "\r\n"
	// DefaultMaxBytes - default limit for a single inbound line, terminator included.
	DefaultMaxBytes = 64 * 1024
)

// replacement - substitute for invalid UTF-8 sequences.
const replacement = string(utf8.RuneError)

// Sanitize - makes a message safe to put on the wire.
// Every run of CR/LF characters is replaced with single space, other white space
// characters become space, other control characters are dropped,
// every invalid UTF-8 sequence is replaced with U+FFFD.
func Sanitize(s string) string {
	if strings.IndexFunc(s, needsCleaning) == -1 && utf8.ValidString(s) {
		return s
	}
	b := strings.Builder{}
	b.Grow(len(s))
	eol := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == '\r' || r == '\n':
			if !eol {
				b.WriteByte(' ')
			}
			eol = true
			continue
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
			// drop
			continue
		default:
			// invalid sequence is decoded as RuneError with size 1
			b.WriteRune(r)
		}
		eol = false
	}
	return b.String()
}

// needsCleaning - reports whether the rune is not written to the wire as is.
func needsCleaning(r rune) bool {
	return r != ' ' && (unicode.IsSpace(r) || unicode.IsControl(r))
}

// Encode - returns wire representation of the message.
func Encode(s string) []byte {
	s = Sanitize(s)
	buf := make([]byte, 0, len(s)+len(Terminator))
	buf = append(buf, s...)
	return append(buf, Terminator...)
}

// Decode - converts received text into message: strips trailing line terminators
// and repairs invalid UTF-8.
func Decode(s string) string {
	return strings.ToValidUTF8(strings.TrimRight(s, "\r\n"), replacement)
}

// NewScanner - builds line scanner over r. Both CR LF and bare LF are accepted as terminators.
// Lines longer than maxBytes make scanner fail with bufio.ErrTooLong.
func NewScanner(r io.Reader, maxBytes int) *bufio.Scanner {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(4096, maxBytes)), maxBytes)
	s.Split(bufio.ScanLines)
	return s
}
