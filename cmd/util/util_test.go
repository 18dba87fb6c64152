package util

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/perfDB/lib/common"
	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")

	d, err := OpenDB(&common.Config{DBPath: path})
	require.NoError(t, err)
	assert.Equal(t, db.ImplText, d.Implementation())

	d, err = OpenDB(&common.Config{DBPath: path, Lock: true, LockTimeoutSecond: 30, WaitTimeoutSecond: 1})
	require.NoError(t, err)
	assert.Equal(t, db.ImplSync, d.Implementation())
	assert.Equal(t, path, d.Path())

	_, err = OpenDB(&common.Config{})
	assert.Error(t, err)
}
