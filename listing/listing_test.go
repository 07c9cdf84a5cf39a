package listing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "a\nb\nc", []string{"a", "b", "c"}},
		{"trailing lf", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr", "a\rb\r", []string{"a", "b"}},
		{"mixed", "a\r\n\nb\rc", []string{"a", "", "b", "c"}},
		{"blank lines kept", "\n\nx\n\n", []string{"", "", "x", ""}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input), "")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	got, err := Decode([]byte("\xef\xbb\xbfLIST.(TEST)\nX"), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, []string{"LIST.(TEST)", "X"}, got)
}

func TestDecodeInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte("ok\nbad \xff here"), "utf-8")
	require.ErrorIs(t, err, ErrEncoding)
	assert.Contains(t, err.Error(), "byte 7")
}

func TestDecodeLatin1(t *testing.T) {
	got, err := Decode([]byte("caf\xe9\n"), "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, got)
}

func TestUnknownEncoding(t *testing.T) {
	_, err := Decode([]byte("x"), "klingon-8")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
	_, err = Encode([]string{"x"}, "klingon-8")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestCanonicalName(t *testing.T) {
	name, err := CanonicalName("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", name)

	name, err = CanonicalName("UTF8")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", name)
}

func TestEncode(t *testing.T) {
	data, err := Encode([]string{"a  ", "b", ""}, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "a  \nb\n", string(data))

	data, err = Encode([]string{"café"}, "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9"), data)

	_, err = Encode([]string{"日本"}, "windows-1252")
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, []string{"one", "two"}, ""))
	assert.Equal(t, "one\ntwo", buf.String())
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mad")
	out := filepath.Join(dir, "out.mad")
	require.NoError(t, os.WriteFile(in, []byte("R* head\r\nLIST.(TEST)\r\n"), 0644))

	lines, err := Read(in, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"R* head", "LIST.(TEST)"}, lines)

	require.NoError(t, Write(out, lines, ""))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "R* head\nLIST.(TEST)", string(data))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// Overwrite in place.
	require.NoError(t, Write(out, []string{"replaced"}, ""))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
}

func TestWriteEncodingFailureLeavesTarget(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("original"), 0644))

	err := Write(out, []string{"日本"}, "windows-1252")
	require.ErrorIs(t, err, ErrEncoding)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestReadMissing(t *testing.T) {
	_, err := Read("/nonexistent/listing.mad", "")
	assert.ErrorContains(t, err, "reading listing")
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mad")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0644))

	assert.True(t, SamePath(a, filepath.Join(dir, ".", "a.mad")))
	assert.False(t, SamePath(a, filepath.Join(dir, "b.mad")))
	assert.True(t, SamePath(filepath.Join(dir, "new.mad"), filepath.Join(dir, "sub", "..", "new.mad")))
}
