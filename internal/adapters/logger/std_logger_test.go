package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedupe.log")

	log, err := New(Options{File: path, JSON: true})
	require.NoError(t, err)
	log.Info("Counted duplicates", "count", 3)
	require.NoError(t, log.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.Debug("a", "k", "v")
		log.Info("b")
		log.Warn("c")
		log.Error("d")
	})
	assert.NoError(t, log.Close())
}
