// Package listing reads and writes listing files in a fixed text encoding.
package listing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/natefinch/atomic"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no encoding is named.
const DefaultEncoding = "utf-8"

var (
	// ErrEncoding wraps failures to decode input or encode output.
	ErrEncoding = errors.New("encoding error")
	// ErrUnknownEncoding is returned for encoding names x/text does not know.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

const maxLineSize = 1 << 20

// lookup resolves an encoding label and reports whether it is UTF-8.
func lookup(name string) (encoding.Encoding, bool, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, enc == unicode.UTF8, nil
}

// CanonicalName returns the WHATWG name of an encoding label.
func CanonicalName(name string) (string, error) {
	enc, _, err := lookup(name)
	if err != nil {
		return "", err
	}
	return htmlindex.Name(enc)
}

// Decode splits encoded text into lines. Lines end at \n, \r\n or \r; a
// final terminator does not start an extra empty line.
func Decode(data []byte, encName string) ([]string, error) {
	enc, isUTF8, err := lookup(encName)
	if err != nil {
		return nil, err
	}
	if isUTF8 && !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrEncoding, invalidOffset(data))
	}
	if isUTF8 {
		// Strips a leading BOM.
		enc = unicode.UTF8BOM
	}

	r := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return lines, nil
}

// Read loads and decodes a listing file.
func Read(path, encName string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	lines, err := Decode(data, encName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Encode joins lines with \n, without a trailing newline, and encodes them.
func Encode(lines []string, encName string) ([]byte, error) {
	enc, _, err := lookup(encName)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().String(strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return []byte(out), nil
}

// WriteTo encodes lines onto w.
func WriteTo(w io.Writer, lines []string, encName string) error {
	data, err := Encode(lines, encName)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

// Write encodes lines and atomically replaces path with them. Nothing is
// written when encoding fails.
func Write(path string, lines []string, encName string) error {
	data, err := Encode(lines, encName)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	// atomic.WriteFile leaves new files with temp file permissions.
	if created {
		if err := os.Chmod(path, 0644); err != nil {
			return fmt.Errorf("setting listing permissions: %w", err)
		}
	}
	return nil
}

// SamePath reports whether a and b name the same file.
func SamePath(a, b string) bool {
	if ia, err := os.Stat(a); err == nil {
		if ib, err := os.Stat(b); err == nil {
			return os.SameFile(ia, ib)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// scanLines is bufio.ScanLines that also ends lines at a lone \r.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Need the next byte to tell \r from \r\n.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
