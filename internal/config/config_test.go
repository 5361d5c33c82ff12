package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	c, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(err)
	assert.Equal(StoreKindMemory, c.Store.Kind)
}

func TestLoad_ParsesTOML(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "langlab.toml")
	contents := `
[store]
kind = "sqlite"
dir = "/var/lib/langlab"

[server]
listen_addr = ":8080"
secret = "shh"
password = "hunter2"
`
	require.NoError(os.WriteFile(path, []byte(contents), 0644))

	c, err := Load(path)
	require.NoError(err)
	assert.Equal(StoreKindSQLite, c.Store.Kind)
	assert.Equal("/var/lib/langlab", c.Store.Dir)
	assert.Equal(":8080", c.Server.ListenAddr)
	assert.Equal("shh", c.Server.Secret)
	assert.Equal("hunter2", c.Server.Password)
}
