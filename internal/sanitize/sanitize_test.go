package sanitize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"escaped and unescaped", `50\% done % comment`, `50\% done %`},
		{"no comment", `\section{Intro}`, `\section{Intro}`},
		{"comment only", `% full line comment`, `%`},
		{"marker at end", `text%`, `text%`},
		{"double marker", `%% banner`, `%`},
		{"escaped then comment", `\%% note`, `\%%`},
		{"only escaped", `100\%`, `100\%`},
		{"empty", ``, ``},
		{"url in text", `\url{a\%20b} % see`, `\url{a\%20b} %`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Line(tc.in))
		})
	}
}

func TestBytes_PreservesTerminators(t *testing.T) {
	in := "a % x\nb\r\n% c\r\n\\% d % e\nlast % no newline"
	got, err := Bytes([]byte(in))
	require.NoError(t, err)
	require.Equal(t, "a %\nb\r\n%\r\n\\% d %\nlast %", string(got))
	require.Equal(t, strings.Count(in, "\n"), strings.Count(string(got), "\n"))
}

func TestBytes_InvalidEncoding(t *testing.T) {
	_, err := Bytes([]byte{'a', 0xff, 0xfe, '\n'})
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "main.tex")
	require.NoError(t, os.WriteFile(p, []byte("50\\% done % comment\n"), 0o640))

	require.NoError(t, File(p))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "50\\% done %\n", string(got))

	info, err := os.Stat(p)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestFile_InvalidEncodingLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "binary.tex")
	raw := []byte{0xff, '%', 'x', '\n'}
	require.NoError(t, os.WriteFile(p, raw, 0o600))

	err := File(p)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	got, readErr := os.ReadFile(p)
	require.NoError(t, readErr)
	require.Equal(t, raw, got)
}

func TestFile_Missing(t *testing.T) {
	require.Error(t, File(filepath.Join(t.TempDir(), "absent.tex")))
}

func TestSanitizeIdempotent(t *testing.T) {
	alphabet := []string{"%", `\`, "a", " ", "\n", "\r\n", "{", "}", "é"}
	join := func(idx []int) string {
		var b strings.Builder
		for _, i := range idx {
			b.WriteString(alphabet[i])
		}
		return b.String()
	}
	pieces := gen.SliceOf(gen.IntRange(0, len(alphabet)-1))

	properties := gopter.NewProperties(nil)
	properties.Property("sanitize(sanitize(x)) == sanitize(x)", prop.ForAll(
		func(idx []int) bool {
			x := []byte(join(idx))
			once, err := Bytes(x)
			if err != nil {
				return false
			}
			twice, err := Bytes(once)
			if err != nil {
				return false
			}
			return string(once) == string(twice)
		},
		pieces,
	))
	properties.Property("line count is preserved", prop.ForAll(
		func(idx []int) bool {
			x := join(idx)
			out, err := Bytes([]byte(x))
			if err != nil {
				return false
			}
			return strings.Count(x, "\n") == strings.Count(string(out), "\n")
		},
		pieces,
	))
	properties.TestingRun(t)
}
