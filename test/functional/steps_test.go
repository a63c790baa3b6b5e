package functional

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

// aCleanAddonmgrEnvironment is a no-op because the Before hook already sets
// up the environment. This step exists so feature files read naturally.
func aCleanAddonmgrEnvironment(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func aHostInstallation(ctx context.Context, binFolder string) (context.Context, error) {
	state := getState(ctx)
	return ctx, os.MkdirAll(filepath.Join(state.hostDir, binFolder), 0o755)
}

func theHostFileContains(ctx context.Context, path, content string) (context.Context, error) {
	state := getState(ctx)
	full := filepath.Join(state.hostDir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ctx, err
	}
	return ctx, os.WriteFile(full, []byte(content), 0o644)
}

// theConfigDocumentContains writes addonmgr.toml, replacing {host} with the
// scenario's host directory.
func theConfigDocumentContains(ctx context.Context, doc *godog.DocString) (context.Context, error) {
	state := getState(ctx)
	content := strings.ReplaceAll(doc.Content, "{host}", filepath.ToSlash(state.hostDir))
	return ctx, os.WriteFile(filepath.Join(state.homeDir, "addonmgr.toml"), []byte(content), 0o644)
}

// iRun executes a command string, replacing "addonmgr" with the test binary
// path and {host} with the scenario's host directory.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "addonmgr" {
		args[0] = state.binPath
	}
	for i := range args {
		args[i] = strings.ReplaceAll(args[i], "{host}", state.hostDir)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = filepath.Dir(state.homeDir)
	cmd.Env = append(os.Environ(), "ADDONMGR_HOME="+state.homeDir)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theFileExists(ctx context.Context, path string) error {
	return exists(filepath.Join(getState(ctx).homeDir, path), true)
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	return exists(filepath.Join(getState(ctx).homeDir, path), false)
}

func theHostFileExists(ctx context.Context, path string) error {
	return exists(filepath.Join(getState(ctx).hostDir, path), true)
}

func theHostFileDoesNotExist(ctx context.Context, path string) error {
	return exists(filepath.Join(getState(ctx).hostDir, path), false)
}

func exists(path string, want bool) error {
	_, err := os.Lstat(path)
	switch {
	case want && os.IsNotExist(err):
		return fmt.Errorf("expected file %q to exist", path)
	case !want && err == nil:
		return fmt.Errorf("expected file %q not to exist", path)
	}
	return nil
}
