package patch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when a request leaves the encoding empty.
const DefaultEncoding = "utf-8"

func encodingOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultEncoding
	}
	return strings.TrimSpace(name)
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.ReplaceAll(encodingOrDefault(name), "_", "-")) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// lookupEncoding resolves a WHATWG label (utf-8, latin1, shift_jis, ...).
// UTF-8 resolves to nil because content is already held as UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	enc, err := htmlindex.Get(encodingOrDefault(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts raw file bytes into a string using the named encoding.
func Decode(data []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w with %s encoding", ErrDecode, encodingOrDefault(name))
		}
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w with %s encoding: %v", ErrDecode, encodingOrDefault(name), err)
	}
	return string(out), nil
}

// Encode converts content into bytes of the named encoding.
func Encode(content, name string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(content), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%w as %s: %v", ErrEncode, encodingOrDefault(name), err)
	}
	return out, nil
}
