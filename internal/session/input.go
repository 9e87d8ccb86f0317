package session

import (
	"bufio"
	"context"
	"io"
	"os"
)

type readOutcome int

const (
	readLine readOutcome = iota
	readEOF
	readInterrupted
	readCancelled
)

// lineReader feeds lines from an io.Reader into a channel so reads can be
// raced against interrupts and cancellation. The goroutine exits at end of
// input or once the reader is closed and it next tries to deliver a line.
type lineReader struct {
	lines chan string
	done  chan struct{}
	err   error
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go lr.run(r)
	return lr
}

func (lr *lineReader) run(r io.Reader) {
	defer close(lr.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		select {
		case lr.lines <- sc.Text():
		case <-lr.done:
			return
		}
	}
	lr.err = sc.Err()
}

func (lr *lineReader) close() {
	close(lr.done)
}

// next waits for the next line, an interrupt, or cancellation.
func (lr *lineReader) next(ctx context.Context, interrupts <-chan os.Signal) (string, readOutcome) {
	select {
	case line, ok := <-lr.lines:
		if !ok {
			return "", readEOF
		}
		return line, readLine
	case <-interrupts:
		return "", readInterrupted
	case <-ctx.Done():
		return "", readCancelled
	}
}
