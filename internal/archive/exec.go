package archive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
	)

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onOutput == nil {
				continue
			}
			mu.Lock()
			onOutput(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// toolRun is the captured result of one external tool invocation.
type toolRun struct {
	lines []string
	err   error
}

func runTool(ctx context.Context, exec Executor, binary string, args []string) toolRun {
	var run toolRun
	run.err = exec.Run(ctx, binary, args, func(line string) {
		run.lines = append(run.lines, line)
	})
	return run
}

// contains reports whether any captured line contains one of the markers,
// ignoring case.
func (r toolRun) contains(markers ...string) bool {
	for _, line := range r.lines {
		lower := strings.ToLower(line)
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// failure summarizes the tool error with the last meaningful output line.
func (r toolRun) failure() error {
	for i := len(r.lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(r.lines[i])
		if line != "" {
			return fmt.Errorf("%w: %s", r.err, line)
		}
	}
	return r.err
}

var passwordMarkers = []string{"wrong password", "incorrect password", "password is incorrect", "can not open encrypted archive", "enter password"}
