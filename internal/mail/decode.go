package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"
	"strings"
)

// Decode turns a Gmail body payload into HTML text: base64 (either alphabet, padded or
// not) followed by quoted-printable.
func Decode(body string) (string, error) {
	raw, err := decodeBase64(body)
	if err != nil {
		return "", fmt.Errorf("decode base64 body: %w", err)
	}
	out, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("decode quoted-printable body: %w", err)
	}
	return string(out), nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "+/") {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}
