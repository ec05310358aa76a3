package bench

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	seq := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(i)
		}
		return b
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"one", []byte{0xff}, "ff\n"},
		{"half", seq(8), "00 01 02 03 04 05 06 07\n"},
		{"nine", seq(9), "00 01 02 03 04 05 06 07  08\n"},
		{
			"two lines",
			seq(18),
			"00 01 02 03 04 05 06 07  08 09 0a 0b 0c 0d 0e 0f\n" +
				"10 11\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Dump(&buf, tt.data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestDump_WriteError(t *testing.T) {
	assert.Error(t, Dump(failWriter{}, []byte{1, 2, 3}))
}
