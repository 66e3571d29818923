// Package sanitize strips TeX line comments from staged source files.
//
// Everything after the first unescaped '%' on a line is removed; the '%' itself
// and the line terminator are kept, so a comment-only line becomes "%" and a
// line never merges with the next one. A '%' preceded by a backslash is text
// and is left alone. Applying the transform twice gives the same result as
// applying it once.
package sanitize

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// CommentMarker starts a TeX line comment.
const CommentMarker = '%'

const escape = '\\'

// ErrInvalidEncoding is returned for content that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("file is not valid UTF-8 text")

// Line strips the comment from a single line. The line may carry its
// terminator; anything after the cut point, terminator included, is handled
// by the caller.
func Line(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != CommentMarker {
			continue
		}
		if i > 0 && line[i-1] == escape {
			continue
		}
		return line[:i+1]
	}
	return line
}

// Bytes sanitizes a whole document, preserving "\n" and "\r\n" terminators.
func Bytes(content []byte) ([]byte, error) {
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	out := make([]byte, 0, len(content))
	for len(content) > 0 {
		var line, term []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, term, content = content[:i], content[i:i+1], content[i+1:]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line, term = line[:n-1], []byte("\r\n")
			}
		} else {
			line, content = content, nil
		}
		out = append(out, Line(string(line))...)
		out = append(out, term...)
	}
	return out, nil
}

// File rewrites path in place. The file is read fully into memory; staged
// sources are small text files.
func File(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	cleaned, err := Bytes(content)
	if err != nil {
		return fmt.Errorf("sanitize %s: %w", path, err)
	}
	if bytes.Equal(cleaned, content) {
		return nil
	}
	if err := os.WriteFile(path, cleaned, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
