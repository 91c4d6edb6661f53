package walstore

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromAferoSweepsLeftoverTmpFiles simulates a crash between
// AtomicCreateWith's write and its rename: a "*.tmp" file is left behind
// with no matching final file. FromAfero must remove it on open rather
// than leaving it to accumulate forever.
func TestFromAferoSweepsLeftoverTmpFiles(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/snapshot.tmp", []byte("half-written"), 0o644))

	fs, err := FromAfero(mem)
	require.NoError(t, err)

	assert.False(t, fs.Exists("snapshot.tmp"))
	ok, err := afero.Exists(mem, "/snapshot.tmp")
	require.NoError(t, err)
	assert.False(t, ok)
}
