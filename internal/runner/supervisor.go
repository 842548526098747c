package runner

import (
	"crafthost/internal/domain"
	"crafthost/internal/installation"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning  = errors.New("server is already running")
	ErrNotRunning      = errors.New("server is not running")
	ErrArtifactMissing = errors.New("server artifact not found")
)

type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	default:
		return "STOPPED"
	}
}

// Instance is the tracked server process.
type Instance struct {
	ID        string
	PID       int
	JavaPath  string
	MinHeapMB int
	MaxHeapMB int
	StartedAt time.Time

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	done    chan struct{}
	exitErr error
}

// Done is closed once the process has exited, whether or not the
// supervisor still tracks it.
func (i *Instance) Done() <-chan struct{} {
	return i.done
}

// ExitErr is the result of waiting on the process. Only valid after Done.
func (i *Instance) ExitErr() error {
	return i.exitErr
}

// Supervisor tracks at most one server process. Each Supervisor value owns
// its own slot; two supervisors pointed at the same installation do not see
// each other and can launch two servers over the same world.
type Supervisor struct {
	Logger *zap.Logger

	mu       sync.Mutex
	instance *Instance
	starting bool
}

func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{Logger: logger}
}

// Start launches server.jar inside layout.Root. Console output goes to out
// (discarded when nil). A process that exits on its own stays tracked until
// Stop is called.
func (s *Supervisor) Start(layout installation.Layout, opts LaunchOptions, out io.Writer) (*Instance, error) {
	s.mu.Lock()
	if s.instance != nil || s.starting {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if !layout.HasArtifact() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w at %s", ErrArtifactMissing, layout.ArtifactPath())
	}
	if err := opts.validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.starting = true
	s.mu.Unlock()

	inst, err := s.launch(layout, opts, out)

	s.mu.Lock()
	s.starting = false
	if err == nil {
		s.instance = inst
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.Logger.Info("server started",
		zap.String("id", inst.ID),
		zap.Int("pid", inst.PID),
		zap.String("java", inst.JavaPath),
		zap.Int("min_heap_mb", opts.MinHeapMB),
		zap.Int("max_heap_mb", opts.MaxHeapMB))
	return inst, nil
}

func (s *Supervisor) launch(layout installation.Layout, opts LaunchOptions, out io.Writer) (*Instance, error) {
	if out == nil {
		out = io.Discard
	}

	cmd := buildCommand(opts, layout.Root, installation.ArtifactFile)
	cmd.Stdout = out
	cmd.Stderr = out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("error opening console input: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}

	inst := &Instance{
		ID:        uuid.New().String(),
		PID:       cmd.Process.Pid,
		JavaPath:  cmd.Path,
		MinHeapMB: opts.MinHeapMB,
		MaxHeapMB: opts.MaxHeapMB,
		StartedAt: time.Now(),
		cmd:       cmd,
		stdin:     stdin,
		done:      make(chan struct{}),
	}

	if err := writePIDFile(layout, inst.PID); err != nil {
		s.Logger.Warn("could not write pid file", zap.String("path", layout.PIDPath()), zap.Error(err))
	}

	// reap the child; the tracked slot is left alone
	go func() {
		inst.exitErr = cmd.Wait()
		removePIDFile(layout, inst.PID)
		close(inst.done)
		s.Logger.Info("server process exited", zap.String("id", inst.ID), zap.Error(inst.exitErr))
	}()

	return inst, nil
}

// Stop asks the tracked process to terminate and forgets it without waiting
// for it to exit.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	inst := s.instance
	s.instance = nil
	s.mu.Unlock()

	if inst == nil {
		return ErrNotRunning
	}

	_ = inst.stdin.Close()
	if err := terminate(inst.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("error signalling server process: %w", err)
	}

	s.Logger.Info("server stop requested", zap.String("id", inst.ID), zap.Int("pid", inst.PID))
	return nil
}

// SendCommand writes one console line to the server.
func (s *Supervisor) SendCommand(line string) error {
	s.mu.Lock()
	inst := s.instance
	s.mu.Unlock()

	if inst == nil {
		return ErrNotRunning
	}

	_, err := io.WriteString(inst.stdin, line+"\n")
	return err
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.starting:
		return StateStarting
	case s.instance != nil:
		return StateRunning
	default:
		return StateStopped
	}
}

// Instance returns the tracked instance, or nil.
func (s *Supervisor) Instance() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance
}

// Stats samples CPU and resident memory of the tracked process.
func (s *Supervisor) Stats() (domain.ServerStats, error) {
	inst := s.Instance()
	if inst == nil {
		return domain.ServerStats{}, ErrNotRunning
	}

	proc, err := process.NewProcess(int32(inst.PID))
	if err != nil {
		return domain.ServerStats{}, fmt.Errorf("error inspecting process %d: %w", inst.PID, err)
	}

	stats := domain.ServerStats{Uptime: time.Since(inst.StartedAt)}

	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPU = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats.RAM = mem.RSS
	}

	return stats, nil
}
