//go:build unix

package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/aryankumar/mermaidfleet/internal/util"
)

// fakeMermaidCLI behaves like mmdc, keyed on the definition it reads from stdin:
// FAIL exits 3 with a parse error, NOOUT exits 0 without writing, SLEEP records
// its pid in $FAKE_MMDC_PIDFILE and hangs. Anything else is echoed into an SVG.
const fakeMermaidCLI = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --version) echo "11.4.0"; echo "extra line"; exit 0 ;;
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
input=$(cat)
case "$input" in
  *FAIL*) echo "Error: Parse error on line 1" >&2; exit 3 ;;
  *NOOUT*) exit 0 ;;
  *SLEEP*) echo $$ > "$FAKE_MMDC_PIDFILE"; exec sleep 30 ;;
esac
printf '<svg>%s</svg>' "$input" > "$out"
`

func fakeExecutable(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mmdc")
	if err := os.WriteFile(path, []byte(fakeMermaidCLI), 0755); err != nil {
		t.Fatalf("failed to write fake renderer: %v", err)
	}
	return path
}

func newTestExecutor(t *testing.T, timeout time.Duration) (*Executor, string) {
	t.Helper()

	tempDir := t.TempDir()
	cfg := Config{
		Executable:     fakeExecutable(t),
		Timeout:        timeout,
		MaxConcurrency: 4,
		TempDir:        tempDir,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(cfg, logger), tempDir
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected %s to be empty, found %v", dir, names)
	}
}

func TestExecutor_Args(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{},
			want: "--quiet --input - --outputFormat svg --output /tmp/out.svg",
		},
		{
			name: "all options",
			cfg: Config{
				Theme:               "dark",
				BackgroundColor:     "transparent",
				ConfigFile:          "mermaid.json",
				PuppeteerConfigFile: "puppeteer.json",
			},
			want: "--quiet --input - --outputFormat svg --output /tmp/out.svg --theme dark --backgroundColor transparent --configFile mermaid.json --puppeteerConfigFile puppeteer.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(NewExecutor(tt.cfg, nil).Args("/tmp/out.svg"), " ")
			if got != tt.want {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutor_Render(t *testing.T) {
	exec, tempDir := newTestExecutor(t, 10*time.Second)

	artifact, err := exec.Render(context.Background(), Request{ID: "flow", Input: strings.NewReader("graph TD")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if artifact.Content != "<svg>graph TD</svg>" {
		t.Errorf("unexpected content %q", artifact.Content)
	}
	if artifact.ContentType != ContentTypeSVG {
		t.Errorf("expected content type %q, got %q", ContentTypeSVG, artifact.ContentType)
	}
	assertEmptyDir(t, tempDir)
}

func TestExecutor_Render_Failures(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		timeout      time.Duration
		wantKind     Kind
		wantExitCode int
		wantMessage  string
	}{
		{
			name:         "non-zero exit",
			input:        "graph FAIL",
			timeout:      10 * time.Second,
			wantKind:     KindNonZeroExit,
			wantExitCode: 3,
			wantMessage:  "renderer exited with code 3: Error: Parse error on line 1",
		},
		{
			name:        "no output written",
			input:       "NOOUT",
			timeout:     10 * time.Second,
			wantKind:    KindIO,
			wantMessage: "failed to read rendered output",
		},
		{
			name:        "timeout",
			input:       "SLEEP",
			timeout:     200 * time.Millisecond,
			wantKind:    KindTimeout,
			wantMessage: "renderer did not finish within 200ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FAKE_MMDC_PIDFILE", filepath.Join(t.TempDir(), "pid"))
			exec, tempDir := newTestExecutor(t, tt.timeout)

			artifact, err := exec.Render(context.Background(), Request{ID: tt.name, Input: strings.NewReader(tt.input)})
			if err == nil {
				t.Fatalf("expected error, got artifact %q", artifact.Content)
			}

			var rerr *Error
			if !errors.As(err, &rerr) {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if rerr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s (%v)", tt.wantKind, rerr.Kind, err)
			}
			if rerr.ExitCode != tt.wantExitCode {
				t.Errorf("expected exit code %d, got %d", tt.wantExitCode, rerr.ExitCode)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("expected error to contain %q, got %q", tt.wantMessage, err.Error())
			}
			assertEmptyDir(t, tempDir)
		})
	}
}

// readPid polls for the pid the fake renderer records once it starts hanging
func readPid(pidFile string) (int, bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(pidFile)
		if err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
				return pid, true
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return 0, false
}

func waitForPid(t *testing.T, pidFile string) int {
	t.Helper()

	pid, ok := readPid(pidFile)
	if !ok {
		t.Fatal("fake renderer never recorded its pid")
	}
	return pid
}

func assertProcessGone(t *testing.T, pid int) {
	t.Helper()

	if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
		t.Errorf("expected renderer process %d to be gone, kill(0) returned %v", pid, err)
	}
}

func TestExecutor_Render_TimeoutKillsProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	t.Setenv("FAKE_MMDC_PIDFILE", pidFile)

	exec, _ := newTestExecutor(t, 300*time.Millisecond)

	start := time.Now()
	_, err := exec.Render(context.Background(), Request{ID: "slow", Input: strings.NewReader("SLEEP")})
	elapsed := time.Since(start)

	if !IsKind(err, KindTimeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if !util.IsTimeout(err) {
		t.Error("expected util.IsTimeout to hold")
	}
	if elapsed > 5*time.Second {
		t.Errorf("render returned %s after its timeout", elapsed)
	}

	assertProcessGone(t, waitForPid(t, pidFile))
}

func TestExecutor_Render_Cancelled(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	t.Setenv("FAKE_MMDC_PIDFILE", pidFile)

	exec, tempDir := newTestExecutor(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	pidCh := make(chan int, 1)
	go func() {
		defer cancel()
		pid, _ := readPid(pidFile)
		pidCh <- pid
	}()

	_, err := exec.Render(ctx, Request{ID: "slow", Input: strings.NewReader("SLEEP")})

	if !IsKind(err, KindCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if !util.IsCancelled(err) {
		t.Error("expected util.IsCancelled to hold")
	}
	if util.IsTimeout(err) {
		t.Error("a cancelled render must not be reported as a timeout")
	}

	pid := <-pidCh
	if pid == 0 {
		t.Fatal("fake renderer never recorded its pid")
	}
	assertProcessGone(t, pid)
	assertEmptyDir(t, tempDir)
}

func TestExecutor_Render_ParentDeadlineIsCancellation(t *testing.T) {
	t.Setenv("FAKE_MMDC_PIDFILE", filepath.Join(t.TempDir(), "pid"))
	exec, _ := newTestExecutor(t, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := exec.Render(ctx, Request{ID: "slow", Input: strings.NewReader("SLEEP")})
	if !IsKind(err, KindCancelled) {
		t.Errorf("expected Cancelled, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the parent's deadline as cause, got %v", err)
	}
}

func TestExecutor_Render_AlreadyCancelled(t *testing.T) {
	exec, tempDir := newTestExecutor(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Render(ctx, Request{ID: "flow", Input: strings.NewReader("graph TD")})
	if !IsKind(err, KindCancelled) {
		t.Errorf("expected Cancelled, got %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExecutor_Render_StartFailure(t *testing.T) {
	tests := []struct {
		name       string
		executable func(t *testing.T) string
	}{
		{
			name: "missing executable",
			executable: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "no-such-mmdc")
			},
		},
		{
			name: "not executable",
			executable: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "mmdc")
				if err := os.WriteFile(path, []byte(fakeMermaidCLI), 0644); err != nil {
					t.Fatal(err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			exec := NewExecutor(Config{
				Executable:     tt.executable(t),
				Timeout:        time.Minute,
				MaxConcurrency: 1,
				TempDir:        tempDir,
			}, nil)

			_, err := exec.Render(context.Background(), Request{ID: "flow", Input: strings.NewReader("graph TD")})
			if !IsKind(err, KindStart) {
				t.Fatalf("expected StartFailure, got %v", err)
			}
			if !errors.Is(err, util.ErrRendererNotFound) {
				t.Error("expected errors.Is(err, ErrRendererNotFound)")
			}
			assertEmptyDir(t, tempDir)
		})
	}
}

func TestExecutor_Render_ConcurrentCleanup(t *testing.T) {
	exec, tempDir := newTestExecutor(t, 10*time.Second)

	inputs := []string{"graph %d", "FAIL %d", "NOOUT %d", "graph LR %d"}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)
	errs := make([]error, 100)
	contents := make([]string, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			input := fmt.Sprintf(inputs[i%len(inputs)], i)
			artifact, err := exec.Render(context.Background(), Request{ID: strconv.Itoa(i), Input: strings.NewReader(input)})
			errs[i] = err
			if artifact != nil {
				contents[i] = artifact.Content
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		input := fmt.Sprintf(inputs[i%len(inputs)], i)
		switch i % len(inputs) {
		case 1:
			if !IsKind(errs[i], KindNonZeroExit) {
				t.Errorf("%d: expected NonZeroExit, got %v", i, errs[i])
			}
		case 2:
			if !IsKind(errs[i], KindIO) {
				t.Errorf("%d: expected IOFailure, got %v", i, errs[i])
			}
		default:
			if errs[i] != nil {
				t.Errorf("%d: unexpected error %v", i, errs[i])
			} else if contents[i] != "<svg>"+input+"</svg>" {
				t.Errorf("%d: got another request's output: %q", i, contents[i])
			}
		}
	}

	assertEmptyDir(t, tempDir)
}

func TestExitMessage(t *testing.T) {
	if got := exitMessage(1, "  \n"); got != "renderer exited with code 1" {
		t.Errorf("unexpected message without stderr: %q", got)
	}

	long := strings.Repeat("x", 2000) + "last words"
	got := exitMessage(2, long)
	if !strings.HasPrefix(got, "renderer exited with code 2: ...") {
		t.Errorf("expected truncated stderr, got %q", got[:60])
	}
	if !strings.HasSuffix(got, "last words") {
		t.Error("expected the tail of stderr to be kept")
	}
	if tail := strings.TrimPrefix(got, "renderer exited with code 2: ..."); len(tail) != maxStderrTail {
		t.Errorf("expected %d bytes of stderr, got %d", maxStderrTail, len(tail))
	}
}

func TestExecutableVersion(t *testing.T) {
	executable := fakeExecutable(t)

	version, err := ExecutableVersion(context.Background(), executable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "11.4.0" {
		t.Errorf("expected version 11.4.0, got %q", version)
	}

	_, err = ExecutableVersion(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !IsKind(err, KindStart) {
		t.Errorf("expected StartFailure for a missing executable, got %v", err)
	}
}
