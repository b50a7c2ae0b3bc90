/*
Package randx generates random identifiers from crypto/rand.

Every string it returns is drawn uniformly from the 62-symbol alphanumeric alphabet
using crypto/rand.Int, which samples without modulo bias.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"path"
	"strings"
)

const (
	// Base62Chars is the alphabet for every generated string: digits, upper and lower case letters.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// AvatarPrefixLength is the number of random symbols prepended to avatar filenames.
	AvatarPrefixLength = 16

	// TokenLength is the length of reset and popup-state tokens.
	TokenLength = 32
)

var base62Len = big.NewInt(int64(len(Base62Chars)))

// Reader is the entropy source. Tests may replace it; production code never should.
var Reader io.Reader = rand.Reader

// String returns n symbols drawn from Base62Chars.
func String(n int) (string, error) {
	result := make([]byte, n)

	for i := range n {
		num, err := rand.Int(Reader, base62Len)
		if err != nil {
			return "", fmt.Errorf("randx: read random source: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// Token returns a TokenLength random string for single-use links and OAuth state.
func Token() (string, error) {
	return String(TokenLength)
}

// AvatarKey returns "<16 random symbols>_<filename>", with any directory part of
// filename removed so the key stays inside its bucket prefix.
func AvatarKey(filename string) (string, error) {
	prefix, err := String(AvatarPrefixLength)
	if err != nil {
		return "", err
	}

	return prefix + "_" + BaseName(filename), nil
}

// BaseName strips both slash styles of directory prefix from a client-supplied filename.
// Names that only denote a directory yield "".
func BaseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

// IsBase62 reports whether s is non-empty and uses only Base62Chars.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
