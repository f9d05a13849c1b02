package fetcher

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncodings is the decode order for source files: UTF-8 first, then
// the legacy Japanese encodings spreadsheets are commonly exported in.
var DefaultEncodings = []string{"utf-8", "shift_jis", "euc-jp"}

// ErrUndecodable is returned when no candidate encoding decodes the input cleanly.
var ErrUndecodable = eris.New("fetcher: no candidate encoding decoded the input")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode tries each named encoding in order and returns the text produced by
// the first one that decodes without replacement characters, plus that
// encoding's canonical name. Names are WHATWG labels ("utf-8", "shift_jis",
// "euc-jp", "windows-31j", ...).
func Decode(data []byte, encodings []string) (string, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	for _, label := range encodings {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return "", "", eris.Wrapf(err, "fetcher: unsupported encoding %q", label)
		}
		name, _ := htmlindex.Name(enc)

		text, ok := tryDecode(enc, name, data)
		if ok {
			return text, name, nil
		}
	}
	return "", "", ErrUndecodable
}

func tryDecode(enc encoding.Encoding, name string, data []byte) (string, bool) {
	if name == "utf-8" {
		if !utf8.Valid(data) {
			return "", false
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), true
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), true
}

// DecodeFile reads path and decodes it with Decode.
func DecodeFile(path string, encodings []string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", eris.Wrapf(err, "fetcher: read %s", path)
	}
	text, name, err := Decode(data, encodings)
	if err != nil {
		return "", "", eris.Wrapf(err, "fetcher: decode %s", path)
	}
	return text, name, nil
}
