package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds the mmdc --version probe
const versionTimeout = 10 * time.Second

// ExecutableVersion runs "<executable> --version" and returns its first output line.
// A failure to start the executable is a StartFailure.
func ExecutableVersion(ctx context.Context, executable string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, "--version")
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return "", newError(KindStart, fmt.Sprintf("failed to start %s", executable), err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", newError(KindTimeout, "version probe did not finish", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &Error{Kind: KindNonZeroExit, ExitCode: exitErr.ExitCode(), Message: "version probe failed"}
		}
		return "", newError(KindIO, "version probe failed", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	return strings.TrimSpace(line), nil
}
