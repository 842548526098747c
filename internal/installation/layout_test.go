package installation

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/srv/mc"}

	assert.Equal(t, filepath.Join("/srv/mc", "server.jar"), l.ArtifactPath())
	assert.Equal(t, filepath.Join("/srv/mc", "eula.txt"), l.EULAPath())
	assert.Equal(t, filepath.Join("/srv/mc", "world"), l.WorldPath())
	assert.Equal(t, filepath.Join("/srv/mc", "backups"), l.BackupsPath())
	assert.Equal(t, filepath.Join("/srv/mc", "java17"), l.RuntimePath(17))
}

func TestEnsureCreatesBackupsDir(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "server"))
	require.NoError(t, err)

	require.NoError(t, l.Ensure())
	assert.DirExists(t, l.BackupsPath())
	assert.False(t, l.HasArtifact())
	assert.False(t, l.HasWorld())
}

func TestAcceptEULA(t *testing.T) {
	l := Layout{Root: filepath.Join(t.TempDir(), "server")}
	assert.False(t, l.EULAAccepted())

	require.NoError(t, l.AcceptEULA())

	data, err := os.ReadFile(l.EULAPath())
	require.NoError(t, err)
	assert.Equal(t, "eula=true\n", string(data))
	assert.True(t, l.EULAAccepted())
}

func TestSetPortPreservesOtherKeys(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	original := "#Minecraft server properties\nmotd=hello\nserver-port=25565\nonline-mode=true\n"
	require.NoError(t, os.WriteFile(l.PropertiesPath(), []byte(original), 0644))

	require.NoError(t, l.SetPort(25570))

	data, err := os.ReadFile(l.PropertiesPath())
	require.NoError(t, err)
	assert.Equal(t, "#Minecraft server properties\nmotd=hello\nserver-port=25570\nonline-mode=true\n", string(data))
	assert.Equal(t, 25570, l.Port())
}

func TestSetPortCreatesFile(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	assert.Equal(t, DefaultPort, l.Port())

	require.NoError(t, l.SetPort(30000))
	assert.Equal(t, 30000, l.Port())

	assert.Error(t, l.SetPort(70000))
}

func TestPortAvailable(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	busy := ln.Addr().(*net.TCPAddr).Port
	assert.False(t, PortAvailable(busy))
}
