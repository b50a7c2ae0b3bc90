package randx

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var avatarKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]{16}_pic\.png$`)

func TestAvatarKeyShape(t *testing.T) {
	key, err := AvatarKey("pic.png")
	require.NoError(t, err)
	assert.Regexp(t, avatarKeyPattern, key)
}

func TestAvatarKeyStripsDirectories(t *testing.T) {
	for _, name := range []string{"../../pic.png", `C:\Users\alice\pic.png`, "/tmp/pic.png"} {
		key, err := AvatarKey(name)
		require.NoError(t, err)
		assert.Regexp(t, avatarKeyPattern, key, "input %q", name)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pic.png", "pic.png"},
		{"../../pic.png", "pic.png"},
		{`C:\Users\alice\pic.png`, "pic.png"},
		{".", ""},
		{"..", ""},
		{"a/..", ""},
		{`uploads\..`, ""},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.in), "input %q", tt.in)
	}
}

func TestAvatarKeysDoNotCollide(t *testing.T) {
	seen := make(map[string]struct{}, 2000)
	for range 2000 {
		key, err := AvatarKey("pic.png")
		require.NoError(t, err)
		_, dup := seen[key]
		require.False(t, dup, "duplicate key %q", key)
		seen[key] = struct{}{}
	}
}

func TestStringUsesAlphabet(t *testing.T) {
	s, err := String(256)
	require.NoError(t, err)
	assert.Len(t, s, 256)
	assert.True(t, IsBase62(s))

	token, err := Token()
	require.NoError(t, err)
	assert.Len(t, token, TokenLength)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestStringPropagatesSourceFailure(t *testing.T) {
	orig := Reader
	Reader = failingReader{}
	t.Cleanup(func() { Reader = orig })

	_, err := AvatarKey("pic.png")
	assert.ErrorContains(t, err, "entropy exhausted")
}

func TestIsBase62(t *testing.T) {
	assert.False(t, IsBase62(""))
	assert.False(t, IsBase62("abc_def"))
	assert.True(t, IsBase62("Zz09"))
}
