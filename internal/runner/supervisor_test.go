package runner

import (
	"bytes"
	"crafthost/internal/installation"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeJava writes a shell script standing in for the runtime executable.
func fakeJava(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runtime is a shell script")
	}
	path := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func newInstallation(t *testing.T, withArtifact bool) installation.Layout {
	t.Helper()
	l := installation.Layout{Root: t.TempDir()}
	require.NoError(t, l.Ensure())
	if withArtifact {
		require.NoError(t, os.WriteFile(l.ArtifactPath(), []byte("jar"), 0644))
	}
	return l
}

func opts(java string) LaunchOptions {
	return LaunchOptions{JavaPath: java, MinHeapMB: 512, MaxHeapMB: 1024}
}

func TestLaunchArgs(t *testing.T) {
	args := LaunchOptions{MinHeapMB: 1024, MaxHeapMB: 4096}.Args("server.jar")
	assert.Equal(t, []string{"-Xms1024M", "-Xmx4096M", "-jar", "server.jar", "nogui"}, args)
}

func TestStartWithoutArtifact(t *testing.T) {
	s := NewSupervisor(nil)
	l := newInstallation(t, false)

	inst, err := s.Start(l, opts("java"), nil)
	assert.Nil(t, inst)
	assert.True(t, errors.Is(err, ErrArtifactMissing))
	assert.Nil(t, s.Instance())
	assert.Equal(t, StateStopped, s.State())

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestStartRejectsInvalidHeap(t *testing.T) {
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	_, err := s.Start(l, LaunchOptions{MinHeapMB: 2048, MaxHeapMB: 1024}, nil)
	assert.Error(t, err)
	assert.Equal(t, StateStopped, s.State())
}

func TestStartLaunchesInInstallationRoot(t *testing.T) {
	java := fakeJava(t, `echo "$@" > args.txt
exec sleep 30`)
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	inst, err := s.Start(l, opts(java), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	assert.NotEmpty(t, inst.ID)
	assert.Positive(t, inst.PID)
	assert.Equal(t, StateRunning, s.State())

	argsFile := filepath.Join(l.Root, "args.txt")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(argsFile)
		return err == nil && len(data) > 0
	}, 5*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "-Xms512M -Xmx1024M -jar server.jar nogui", strings.TrimSpace(string(data)))
}

func TestStartTwiceKeepsOneInstance(t *testing.T) {
	java := fakeJava(t, "exec sleep 30")
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	first, err := s.Start(l, opts(java), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	second, err := s.Start(l, opts(java), nil)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Same(t, first, s.Instance())
}

func TestStopTerminatesAndClears(t *testing.T) {
	java := fakeJava(t, "exec sleep 30")
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	inst, err := s.Start(l, opts(java), nil)
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.Nil(t, s.Instance())
	assert.Equal(t, StateStopped, s.State())

	select {
	case <-inst.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after stop")
	}

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestSelfExitedProcessStaysTracked(t *testing.T) {
	java := fakeJava(t, "exit 0")
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	inst, err := s.Start(l, opts(java), nil)
	require.NoError(t, err)

	select {
	case <-inst.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	assert.Equal(t, StateRunning, s.State())
	_, err = s.Start(l, opts(java), nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
}

func TestConsoleOutputAndCommands(t *testing.T) {
	java := fakeJava(t, `echo "Done (1.234s)! For help, type \"help\""
read line
echo "got $line"
exec sleep 30`)
	s := NewSupervisor(nil)
	l := newInstallation(t, true)
	out := &syncBuffer{}

	_, err := s.Start(l, opts(java), out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Done (")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, s.SendCommand("say hello"))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "got say hello")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSendCommandNotRunning(t *testing.T) {
	assert.ErrorIs(t, NewSupervisor(nil).SendCommand("stop"), ErrNotRunning)
}

func TestStats(t *testing.T) {
	s := NewSupervisor(nil)
	_, err := s.Stats()
	assert.ErrorIs(t, err, ErrNotRunning)

	java := fakeJava(t, "exec sleep 30")
	l := newInstallation(t, true)
	_, err = s.Start(l, opts(java), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Uptime, time.Duration(0))
}

func TestIndependentSupervisors(t *testing.T) {
	java := fakeJava(t, "exec sleep 30")
	l := newInstallation(t, true)
	a, b := NewSupervisor(nil), NewSupervisor(nil)

	_, err := a.Start(l, opts(java), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop() })

	assert.Equal(t, StateStopped, b.State())
}

func TestPIDFileFollowsProcess(t *testing.T) {
	java := fakeJava(t, "exec sleep 30")
	s := NewSupervisor(nil)
	l := newInstallation(t, true)

	inst, err := s.Start(l, opts(java), nil)
	require.NoError(t, err)

	pid, ok := RecordedPID(l)
	require.True(t, ok)
	assert.Equal(t, inst.PID, pid)

	require.NoError(t, s.Stop())
	select {
	case <-inst.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	_, ok = RecordedPID(l)
	assert.False(t, ok)
	assert.NoFileExists(t, l.PIDPath())
}

func TestRecordedPID(t *testing.T) {
	l := newInstallation(t, false)

	_, ok := RecordedPID(l)
	assert.False(t, ok, "no pid file")

	require.NoError(t, os.WriteFile(l.PIDPath(), []byte("not-a-pid"), 0644))
	_, ok = RecordedPID(l)
	assert.False(t, ok, "garbage")

	require.NoError(t, writePIDFile(l, os.Getpid()))
	pid, ok := RecordedPID(l)
	assert.True(t, ok)
	assert.Equal(t, os.Getpid(), pid)

	removePIDFile(l, os.Getpid()+1)
	assert.FileExists(t, l.PIDPath(), "rewritten by another launch")
	removePIDFile(l, os.Getpid())
	assert.NoFileExists(t, l.PIDPath())
}
