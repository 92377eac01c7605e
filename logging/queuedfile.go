package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
)

var errQueueClosed = errors.New("queued file is closed")

// QueuedFile hands writes to a background goroutine so case sinks never
// block the runner on disk I/O. The first write error is kept and reported
// by Close.
type QueuedFile struct {
	path    string
	pending chan []byte
	done    chan struct{}

	mu     sync.Mutex // guards closed and sends on pending
	closed bool

	errMu sync.Mutex
	err   error
}

func OpenQueuedFile(path string) (*QueuedFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	q := &QueuedFile{
		path:    path,
		pending: make(chan []byte, 128),
		done:    make(chan struct{}),
	}
	go q.drain(f)
	return q, nil
}

// Write queues a copy of p
func (q *QueuedFile) Write(p []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("%s: %w", q.path, errQueueClosed)
	}
	q.pending <- append([]byte(nil), p...)
	return nil
}

func (q *QueuedFile) drain(f *os.File) {
	defer close(q.done)
	w := bufio.NewWriter(f)
	for p := range q.pending {
		if _, err := w.Write(p); err != nil {
			q.setErr(err)
		}
	}
	q.setErr(w.Flush())
	q.setErr(f.Close())
}

func (q *QueuedFile) setErr(err error) {
	if err == nil {
		return
	}
	q.errMu.Lock()
	defer q.errMu.Unlock()
	if q.err == nil {
		q.err = fmt.Errorf("writing %s: %w", q.path, err)
	}
}

// Close waits for the queued writes to land and closes the file. Calling it
// again returns the same result.
func (q *QueuedFile) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.pending)
	}
	q.mu.Unlock()

	<-q.done
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.err
}
