package infra

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

type StreamKind int

const (
	Stdout StreamKind = iota
	Stderr
)

// Chunk is one read from a live process output stream.
type Chunk struct {
	Stream StreamKind
	Data   []byte
}

type LaunchOptions struct {
	HideWindow bool
	// Observers receive a copy of output as it is produced. Either may be nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Launcher starts OS processes. CommandRunner depends on it so the batch
// logic can be exercised without real processes.
type Launcher interface {
	// RunBuffered runs command through the host shell and waits for exit.
	// err is non-nil only when the process could not be run at all.
	RunBuffered(ctx context.Context, command string, opts LaunchOptions) (stdout, stderr string, exitCode int, err error)

	// RunStreamed launches program directly and calls onChunk for every read
	// from stdout and stderr, in emission order per stream. onChunk may be
	// called from two goroutines. A read failure is returned as a
	// *domain.ExecutionFailure of kind StreamFailure.
	RunStreamed(ctx context.Context, program string, args []string, opts LaunchOptions, onChunk func(Chunk)) (exitCode int, err error)
}

const readChunkSize = 32 * 1024

type OSLauncher struct{}

func NewOSLauncher() *OSLauncher {
	return &OSLauncher{}
}

func (l *OSLauncher) RunBuffered(ctx context.Context, command string, opts LaunchOptions) (string, string, int, error) {
	cmd := shellCommand(ctx, command)
	configureProcess(cmd, opts)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, opts.Stdout)
	cmd.Stderr = tee(&stderr, opts.Stderr)

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		return stdout.String(), stderr.String(), -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}

func (l *OSLauncher) RunStreamed(ctx context.Context, program string, args []string, opts LaunchOptions, onChunk func(Chunk)) (int, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	configureProcess(cmd, opts)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	var (
		wg        sync.WaitGroup
		readErrMu sync.Mutex
		readErr   error
	)
	pump := func(r io.Reader, kind StreamKind, observer io.Writer) {
		defer wg.Done()
		buf := make([]byte, readChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				if observer != nil {
					_, _ = observer.Write(data)
				}
				onChunk(Chunk{Stream: kind, Data: data})
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErrMu.Lock()
					if readErr == nil {
						readErr = err
					}
					readErrMu.Unlock()
				}
				return
			}
		}
	}

	wg.Add(2)
	go pump(stdoutPipe, Stdout, opts.Stdout)
	go pump(stderrPipe, Stderr, opts.Stderr)
	// Both pipes must be drained before Wait closes them.
	wg.Wait()

	waitErr := cmd.Wait()
	if readErr != nil {
		return -1, domain.NewStreamFailure(readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if sig := exitSignal(exitErr.ProcessState); sig != "" {
				return -1, domain.NewSignalFailure(sig)
			}
			return exitErr.ExitCode(), nil
		}
		return -1, domain.NewStreamFailure(waitErr)
	}
	return 0, nil
}

func tee(buf *bytes.Buffer, observer io.Writer) io.Writer {
	if observer == nil {
		return buf
	}
	return io.MultiWriter(buf, observer)
}
