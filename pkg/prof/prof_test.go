//go:build profile

package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCPU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")

	require.NoError(t, StartCPU(path))
	assert.True(t, IsCPUActive())

	// Second start fails fast.
	assert.ErrorIs(t, StartCPU(filepath.Join(t.TempDir(), "cpu2.prof")), ErrCPUProfileActive)

	require.NoError(t, StopCPU())
	assert.False(t, IsCPUActive())
	assert.NoError(t, StopCPU())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())
}

func TestStartCPU_InvalidPath(t *testing.T) {
	assert.Error(t, StartCPU("/nonexistent/directory/cpu.prof"))
	assert.False(t, IsCPUActive())
}

func TestWrite(t *testing.T) {
	for _, p := range []Profile{ProfileHeap, ProfileAllocs, ProfileGoroutine, ProfileBlock, ProfileMutex} {
		t.Run(p.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), p.String()+".prof")
			require.NoError(t, Write(p, path))

			fi, err := os.Stat(path)
			require.NoError(t, err)
			assert.NotZero(t, fi.Size())
		})
	}
}

func TestWrite_Invalid(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Write(ProfileCPU, filepath.Join(dir, "cpu.prof")), ErrInvalidProfile)
	assert.ErrorIs(t, Write(Profile("nonexistent"), filepath.Join(dir, "x.prof")), ErrInvalidProfile)
	assert.Error(t, Write(ProfileHeap, "/nonexistent/directory/heap.prof"))
}
