package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTerminal(t *testing.T, tty bool, pw string, err error) {
	t.Helper()
	oldRead, oldTTY := readPassword, isTerminal
	readPassword = func(int) ([]byte, error) { return []byte(pw), err }
	isTerminal = func(int) bool { return tty }
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTTY })
}

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "line", input: "  usta \n", want: "usta"},
		{name: "last line without newline", input: "usta", want: "usta"},
		{name: "empty stream", input: "", wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(bufio.NewReader(strings.NewReader(tt.input)), "Enter username", &out)

			assert.Equal(t, "Enter username\n> ", out.String())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPassword_Terminal(t *testing.T) {
	fakeTerminal(t, true, "s3cret", nil)

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("ignored\n")), "Enter password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_TerminalError(t *testing.T) {
	fakeTerminal(t, true, "", errors.New("boom"))

	var out bytes.Buffer
	_, err := GetPassword(bufio.NewReader(strings.NewReader("")), "Enter password", &out)
	require.EqualError(t, err, "boom")
}

func TestGetPassword_Piped(t *testing.T) {
	fakeTerminal(t, false, "unused", nil)

	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("pw1\npw2\n"))

	pw, err := GetPassword(in, "Enter password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw1"), pw)
	assert.Equal(t, "Enter password: ", out.String())

	pw, err = GetPassword(in, "Enter password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw2"), pw)

	_, err = GetPassword(in, "Enter password", &out)
	require.ErrorIs(t, err, io.EOF)
}
