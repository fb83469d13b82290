// Package ngen adapts the external hydrologic simulation engine: invoking the
// model binary, reading its catchment output files, supplying observed flow,
// and rewriting the realization fragment between iterations.
package ngen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner executes the simulation engine as a subprocess inside a job working
// directory. The engine reads the realization fragment from that directory and
// writes its catchment output files there.
type Runner struct {
	binary  string
	args    string
	workdir string
	logFile string
}

// NewRunner builds a runner for the given binary and argument string. logFile
// may be empty, in which case engine output is discarded.
func NewRunner(binary, args, workdir, logFile string) *Runner {
	return &Runner{binary: binary, args: args, workdir: workdir, logFile: logFile}
}

// Run invokes the engine once and waits for it to exit. The command line is
// interpreted by the shell so configured argument strings can carry quoting
// and redirection. A non-zero exit is returned as an error.
func (r *Runner) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", r.binary+" "+r.args)
	cmd.Dir = r.workdir

	if r.logFile != "" {
		f, err := os.OpenFile(r.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open model log %s: %w", r.logFile, err)
		}
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("model binary %q failed: %w", r.binary, err)
	}
	return nil
}
