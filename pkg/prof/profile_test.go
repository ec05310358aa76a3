package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_Requested(t *testing.T) {
	assert.False(t, Capture{}.Requested())
	assert.True(t, Capture{CPU: "cpu.prof"}.Requested())
	assert.True(t, Capture{Heap: "heap.prof"}.Requested())
}

func TestCapture_Start(t *testing.T) {
	dir := t.TempDir()
	c := Capture{
		CPU:  filepath.Join(dir, "cpu.prof"),
		Heap: filepath.Join(dir, "heap.prof"),
	}

	stop, err := c.Start()
	require.NoError(t, err)
	require.NoError(t, stop())

	for _, path := range []string{c.CPU, c.Heap} {
		_, err := os.Stat(path)
		if Enabled {
			assert.NoError(t, err, path)
		} else {
			assert.ErrorIs(t, err, os.ErrNotExist, path)
		}
	}
}

func TestCapture_Empty(t *testing.T) {
	stop, err := Capture{}.Start()
	require.NoError(t, err)
	assert.NoError(t, stop())
	assert.False(t, IsCPUActive())
}
