package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{"valid mp3", "talk.mp3", 2048, nil},
		{"valid wav", "sample.wav", 2000, nil},
		{"valid uppercase ext", "CLIP.MP4", 5000, nil},
		{"empty filename", "", 2048, ErrEmptyFilename},
		{"overlong filename", strings.Repeat("a", 252) + ".mp3", 2048, ErrEmptyFilename},
		{"multibyte name under limit", strings.Repeat("あ", 90) + ".mp3", 2048, nil},
		{"multibyte name over limit", strings.Repeat("あ", 252) + ".mp3", 2048, ErrEmptyFilename},
		{"parent traversal", "..secret.mp3", 2048, ErrPathTraversal},
		{"slash", "dir/clip.mp3", 2048, ErrPathTraversal},
		{"backslash", `dir\clip.mp3`, 2048, ErrPathTraversal},
		{"bad extension", "notes.txt", 2048, ErrInvalidExtension},
		{"no extension", "noext", 2048, ErrInvalidExtension},
		{"too small", "clip.mp3", 1023, ErrTooSmall},
		{"at min size", "clip.mp3", 1024, nil},
		{"too large", "clip.mp3", MaxFileSize + 1, ErrTooLarge},
		{"at max size", "clip.mp3", MaxFileSize, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.filename, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "clip.mp3", Sanitize("clip.mp3"))
	assert.Equal(t, "my_clip_1_.mp3", Sanitize("my clip(1).mp3"))
	assert.Equal(t, "_____.wav", Sanitize("こんにちは.wav"))

	long := Sanitize(strings.Repeat("x", 300) + ".mp3")
	assert.LessOrEqual(t, len(long), 200)

	// Output only ever contains the allow-listed characters.
	for _, input := range []string{"a b/c\\d..e", "日本語.mp4", "weird%$#name!.ogg"} {
		out := Sanitize(input)
		for _, c := range out {
			ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
				c == '.' || c == '_' || c == '-'
			assert.True(t, ok, "character %q in %q", c, out)
		}
	}
}
