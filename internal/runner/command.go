package runner

import (
	"fmt"
	"os/exec"
)

const defaultJava = "java"

// LaunchOptions configures one server launch.
type LaunchOptions struct {
	// JavaPath is the runtime executable. Empty means "java" from PATH.
	JavaPath  string
	MinHeapMB int
	MaxHeapMB int
}

// Args returns the launch arguments for the server artifact.
func (o LaunchOptions) Args(jarName string) []string {
	return []string{
		fmt.Sprintf("-Xms%dM", o.MinHeapMB),
		fmt.Sprintf("-Xmx%dM", o.MaxHeapMB),
		"-jar", jarName,
		"nogui",
	}
}

func (o LaunchOptions) validate() error {
	if o.MinHeapMB <= 0 || o.MaxHeapMB <= 0 {
		return fmt.Errorf("heap sizes must be positive (min=%d, max=%d)", o.MinHeapMB, o.MaxHeapMB)
	}
	if o.MinHeapMB > o.MaxHeapMB {
		return fmt.Errorf("minimum heap %dM exceeds maximum heap %dM", o.MinHeapMB, o.MaxHeapMB)
	}
	return nil
}

func buildCommand(opts LaunchOptions, workDir, jarName string) *exec.Cmd {
	javaPath := opts.JavaPath
	if javaPath == "" {
		javaPath = defaultJava
	}

	cmd := exec.Command(javaPath, opts.Args(jarName)...)
	cmd.Dir = workDir
	prepareCommand(cmd)
	return cmd
}
