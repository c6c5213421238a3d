// Package shell runs external programs on tea's behalf.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
)

var errEmptyCommand = zerr.New("empty command")

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger ports.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a Runner that reports the program's output through logger, line by line.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// WithStdio returns a copy of r connected directly to the given streams.
func (r *Runner) WithStdio(stdin io.Reader, stdout, stderr io.Writer) *Runner {
	c := *r
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
	return &c
}

// Run executes argv in dir with env merged into the process environment.
// A vertex in ctx receives a copy of the output.
func (r *Runner) Run(ctx context.Context, dir string, argv []string, env domain.Env) error {
	if len(argv) == 0 {
		return errEmptyCommand
	}

	name := argv[0]
	cmdEnv := resolveEnvironment(os.Environ(), env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // argv comes from tea itself or the user's own command line
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = cmdEnv
	cmd.Stdin = r.stdin

	stdout, stderr := r.outputs()
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdout = io.MultiWriter(stdout, v.Stdout())
		stderr = io.MultiWriter(stderr, v.Stderr())
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	r.flush(stdout, stderr)
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "command", name), "exit_code", exitCode)
	}

	return nil
}

func (r *Runner) outputs() (io.Writer, io.Writer) {
	stdout, stderr := r.stdout, r.stderr
	if stdout == nil {
		stdout = &logWriter{logger: r.logger, level: "info"}
	}
	if stderr == nil {
		stderr = &logWriter{logger: r.logger, level: "warn"}
	}
	return stdout, stderr
}

func (r *Runner) flush(ws ...io.Writer) {
	for _, w := range ws {
		if lw, ok := w.(*logWriter); ok {
			lw.Flush()
		}
	}
}

// logWriter buffers partial writes and logs complete lines.
type logWriter struct {
	logger ports.Logger
	level  string
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.log(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs a trailing line without newline.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.log(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}

func (w *logWriter) log(line string) {
	if line == "" {
		return
	}
	if w.level == "info" {
		w.logger.Info(line)
	} else {
		w.logger.Warn(line)
	}
}

// resolveEnvironment prepends every variable of env to the inherited value of the same name.
func resolveEnvironment(sysEnv []string, env domain.Env) []string {
	envMap := make(map[string]string, len(sysEnv))
	keys := make([]string, 0, len(sysEnv)+env.Len())
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			keys = append(keys, k)
		}
		envMap[k] = v
	}

	for _, k := range env.Keys() {
		v := strings.Join(env.Get(k), string(os.PathListSeparator))
		if prev, exists := envMap[k]; exists && prev != "" {
			v += string(os.PathListSeparator) + prev
		} else if !exists {
			keys = append(keys, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "PATH="); ok {
			path = after
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
