package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPIDPath(t *testing.T) {
	abs := "/tmp/xx.pid"
	assert.Equal(t, abs, GetPIDPath(abs))

	assert.Equal(t, defaultPIDPath, GetPIDPath(""))

	old, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(old) })
	tmp := t.TempDir()
	_ = os.Chdir(tmp)
	got := GetPIDPath("proc.pid")
	exp, _ := filepath.EvalSymlinks(filepath.Join(tmp, "proc.pid"))
	realGot, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, exp, realGot)

	assert.Equal(t, defaultPIDPath, GetPIDPath(filepath.Join("missing", "dir", "proc.pid")))
}

func TestWriteReadRemovePID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "apiserver.pid")

	require.NoError(t, WritePID(path))
	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	assert.NoError(t, RemovePID(path))
	assert.NoError(t, RemovePID(path))
	_, err = ReadPID(path)
	assert.Error(t, err)
}
