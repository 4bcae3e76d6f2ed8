// Package store owns the append-only alert log: newline delimited JSON
// entries, one per dispatched alert, written by a single background
// writer so channel goroutines never block each other on the file.
package store

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Entry is one line of the alert log.
type Entry struct {
	Timestamp time.Time   `json:"timestamp"`
	Level     string      `json:"level"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Source    string      `json:"source"`
}

// Store is the writer of the alert log file.
type Store struct {
	path string

	// Console mirrors every entry when set. Used by oneshot mode.
	Console io.Writer

	writeCh       chan<- Entry
	writerStopped chan struct{}

	errorsLock sync.RWMutex
	errors     []string
	healthy    bool
}

// New opens (or creates) the alert log at path and starts the writer.
// An empty path disables the file; entries then go to Console only.
func New(path string, console io.Writer) (*Store, error) {
	ch := make(chan Entry, 32)

	store := &Store{
		path:          path,
		Console:       console,
		writeCh:       ch,
		writerStopped: make(chan struct{}),
		healthy:       true,
	}

	if store.path != "" {
		f, err := os.OpenFile(store.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_SYNC, 0644)
		if err != nil {
			close(ch)
			return nil, err
		}
		f.Close()
	}

	go store.writer(ch, store.writerStopped)

	return store, nil
}

// Path returns path to the alert log file.
func (s *Store) Path() string {
	return s.path
}

// Append queues one entry for the log. It never blocks on the file;
// write failures are reported through Errors.
func (s *Store) Append(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.writeCh <- e
}

// handleError records a write error so /healthz can expose it.
func (s *Store) handleError(err error, exportableErrorMessage string) {
	if err != nil {
		s.addError(exportableErrorMessage)
		if s.Console != nil {
			fmt.Fprintf(s.Console, "alert log error: %s\n", err)
		}
	}
}

func (s *Store) writer(ch <-chan Entry, stopped chan struct{}) {
	for e := range ch {
		line, err := json.Marshal(e)
		if err != nil {
			s.handleError(err, "failed to encode log entry")
			continue
		}
		line = append(line, '\n')

		if s.Console != nil {
			s.Console.Write(line)
		}

		if s.path == "" {
			continue
		}

		s.setHealthy()

		f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			s.handleError(err, "failed to open alert log")
			continue
		}

		_, err = f.Write(line)
		s.handleError(err, "failed to write alert log")

		err = f.Close()
		s.handleError(err, "failed to close alert log")
	}

	close(stopped)
}

// Close flushes pending entries and stops the writer.
func (s *Store) Close() error {
	close(s.writeCh)
	<-s.writerStopped
	return nil
}

func (s *Store) setHealthy() {
	s.errorsLock.Lock()
	defer s.errorsLock.Unlock()

	s.healthy = true
}

// addError adds an error message for the Errors method, and marks the
// store unhealthy until a write succeeds again.
func (s *Store) addError(message string) {
	s.errorsLock.Lock()
	defer s.errorsLock.Unlock()

	s.healthy = false
	s.errors = append(
		s.errors,
		fmt.Sprintf("%s\t%s", time.Now().Format(time.RFC3339), message),
	)

	if len(s.errors) > 10 {
		s.errors = s.errors[1:]
	}
}

// Errors returns store status and recent error messages.
func (s *Store) Errors() (healthy bool, messages []string) {
	s.errorsLock.RLock()
	defer s.errorsLock.RUnlock()

	return s.healthy, s.errors
}
