package mail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	qp := "<td width=3D\"100\">Caf=C3=A9</td>=\r\n<td>ok</td>"
	want := "<td width=\"100\">Café</td><td>ok</td>"

	cases := map[string]string{
		"url padded":   base64.URLEncoding.EncodeToString([]byte(qp)),
		"url raw":      base64.RawURLEncoding.EncodeToString([]byte(qp)),
		"std padded":   base64.StdEncoding.EncodeToString([]byte(qp)),
		"std raw":      base64.RawStdEncoding.EncodeToString([]byte(qp)),
		"line wrapped": wrap(base64.URLEncoding.EncodeToString([]byte(qp)), 20),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(body)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64 at all!")
	assert.Error(t, err)
}

func wrap(s string, n int) string {
	var out string
	for len(s) > n {
		out += s[:n] + "\r\n"
		s = s[n:]
	}
	return out + s
}
