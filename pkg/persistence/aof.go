package persistence

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
)

// AOFWriter is the background writer thread: a single bounded queue feeds a
// dedicated goroutine that appends records to the log file. Append never
// blocks the caller's mutation path; a full queue drops the record and
// counts it as an I/O failure, since losing one record is preferable to
// stalling every writer behind a slow disk.
type AOFWriter struct {
	file  *os.File
	out   *bufio.Writer
	queue chan string

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewAOFWriter opens path for appending and starts the background writer
// goroutine with a queue of the given capacity.
func NewAOFWriter(path string, queueSize int) (*AOFWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open aof file: %w", err)
	}
	w := &AOFWriter{
		file:  f,
		out:   bufio.NewWriter(f),
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Append satisfies store.Journal: it enqueues record for the background
// writer, logging and counting a drop if the queue is saturated.
func (w *AOFWriter) Append(record string) {
	select {
	case w.queue <- record:
	default:
		metrics.AOFErrorsTotal.Inc()
		log.WithComponent("persistence").Warn().Str("record", record).Msg("aof queue full, dropping record")
	}
}

func (w *AOFWriter) run() {
	defer w.wg.Done()
	flushTicker := time.NewTicker(200 * time.Millisecond)
	defer flushTicker.Stop()
	for {
		select {
		case record, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			if _, err := w.out.WriteString(record + "\n"); err != nil {
				metrics.AOFErrorsTotal.Inc()
				log.WithComponent("persistence").Error().Err(err).Msg("aof write failed")
				continue
			}
			metrics.AOFRecordsTotal.Inc()
		case <-flushTicker.C:
			w.flush()
		case <-w.done:
			w.drainRemaining()
			w.flush()
			return
		}
	}
}

func (w *AOFWriter) drainRemaining() {
	for {
		select {
		case record := <-w.queue:
			if _, err := w.out.WriteString(record + "\n"); err != nil {
				metrics.AOFErrorsTotal.Inc()
				continue
			}
			metrics.AOFRecordsTotal.Inc()
		default:
			return
		}
	}
}

func (w *AOFWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.out.Flush(); err != nil {
		metrics.AOFErrorsTotal.Inc()
		log.WithComponent("persistence").Error().Err(err).Msg("aof flush failed")
	}
}

// Close drains the queue (bounded by the caller's own timeout via Drain),
// flushes, and closes the underlying file.
func (w *AOFWriter) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.file.Close()
}

// Drain runs Close and waits up to timeout for it to finish. On timeout it
// logs a warning and returns nil while the close continues in the
// background — matching the shutdown sequence's bounded AOF drain.
func (w *AOFWriter) Drain(timeout time.Duration) error {
	doneCh := make(chan error, 1)
	go func() { doneCh <- w.Close() }()
	select {
	case err := <-doneCh:
		return err
	case <-time.After(timeout):
		log.WithComponent("persistence").Warn().Msg("aof drain timed out, forcing shutdown")
		return nil
	}
}
