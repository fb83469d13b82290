package agent

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// JobMeta identifies one job working directory. Every agent owns exactly one:
// the engine runs there, checkpoints are written there, and the agent's copy
// of the realization fragment lives there.
type JobMeta struct {
	Name    string
	Workdir string
	LogFile string
}

const workerSuffix = "_worker"

// NewJob creates a fresh uniquely named working directory under parent. When
// log is set, engine output is captured to <name>.log inside it.
func NewJob(name, parent string, log bool) (*JobMeta, error) {
	token := strings.Split(uuid.NewString(), "-")[0]
	dir := filepath.Join(parent, fmt.Sprintf("%s_%s%s", name, token, workerSuffix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job workdir %s: %w", dir, err)
	}
	j := &JobMeta{Name: name, Workdir: dir}
	if log {
		j.LogFile = filepath.Join(dir, name+".log")
	}
	return j, nil
}

// FindJob locates the single existing working directory for name under
// parent, for resuming an interrupted run. Zero or multiple candidates mean
// the previous run's state is ambiguous and resumption is refused.
func FindJob(name, parent string, log bool) (*JobMeta, error) {
	pattern := filepath.Join(parent, name+"_*"+workerSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for job workdirs: %w", err)
	}
	dirs := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no existing job workdir matches %s", pattern)
	}
	if len(dirs) > 1 {
		return nil, fmt.Errorf("%d job workdirs match %s, cannot pick one to resume", len(dirs), pattern)
	}
	j := &JobMeta{Name: name, Workdir: dirs[0]}
	if log {
		j.LogFile = filepath.Join(dirs[0], name+".log")
	}
	return j, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}
