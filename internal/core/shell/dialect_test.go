package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixQuote(t *testing.T) {
	d := Unix{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain word", "ubuntu", "ubuntu"},
		{"path", "/root/.ssh/id_ed25519.pub", "/root/.ssh/id_ed25519.pub"},
		{"url", "http://164.92.249.180:31337", "http://164.92.249.180:31337"},
		{"empty", "", "''"},
		{"spaces", "two words", "'two words'"},
		{"semicolon injection", "ubuntu; rm -rf /", "'ubuntu; rm -rf /'"},
		{"single quote", "it's", `'it'\''s'`},
		{"dollar", "$HOME", "'$HOME'"},
		{"backticks", "`id`", "'`id`'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Quote(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnixQuoteRejectsNUL(t *testing.T) {
	_, err := Unix{}.Quote("a\x00b")
	assert.Error(t, err)
}

func TestWindowsQuote(t *testing.T) {
	d := Windows{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain word", "ubuntu", "ubuntu"},
		{"windows path", `C:\Users\op\.detee`, `C:\Users\op\.detee`},
		{"spaces", "two words", `"two words"`},
		{"ampersand", "a&b", `"a&b"`},
		{"empty", "", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Quote(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowsQuoteRejectsUnescapable(t *testing.T) {
	d := Windows{}
	for _, in := range []string{"%PATH%", "del!", `say "hi"`, "line\nbreak", "cr\rhere", "nul\x00"} {
		_, err := d.Quote(in)
		assert.Error(t, err, "input %q must be rejected", in)
	}
}

func TestQuoteDeterminism(t *testing.T) {
	for _, d := range []Dialect{Unix{}, Windows{}} {
		a, err := d.Quote("two words")
		require.NoError(t, err)
		b, err := d.Quote("two words")
		require.NoError(t, err)
		assert.Equal(t, a, b, "dialect %s", d.Name())
	}
}

func TestHomeAndJoin(t *testing.T) {
	assert.Equal(t, "~", Unix{}.Home())
	assert.Equal(t, "~/.detee/cli", Unix{}.Join("~", ".detee", "cli"))
	assert.Equal(t, "%USERPROFILE%", Windows{}.Home())
	assert.Equal(t, `%USERPROFILE%\.detee\cli`, Windows{}.Join("%USERPROFILE%", ".detee", "cli"))
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/op/.detee", Unix{}.ExpandHome("~/.detee", "/home/op"))
	assert.Equal(t, "/home/op", Unix{}.ExpandHome("~", "/home/op"))
	assert.Equal(t, "/abs/path", Unix{}.ExpandHome("/abs/path", "/home/op"))
	assert.Equal(t, `C:\Users\op\.detee`, Windows{}.ExpandHome(`%USERPROFILE%\.detee`, `C:\Users\op`))
}

func TestForPlatform(t *testing.T) {
	assert.Equal(t, "windows", ForPlatform("windows").Name())
	assert.Equal(t, "unix", ForPlatform("unix").Name())
	assert.Equal(t, "unix", ForPlatform("linux").Name())
}
