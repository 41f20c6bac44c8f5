package executor

import (
	"bytes"
	"log/slog"
	"sync"
)

type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (o *lockedBuffer) Write(data []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Write(data)
}

func (o *lockedBuffer) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

// stderrLogger keeps guest stderr and forwards every complete line to the
// logger at debug level.
type stderrLogger struct {
	lockedBuffer
	logger  *slog.Logger
	pending []byte
}

func newStderrLogger(logger *slog.Logger) *stderrLogger {
	return &stderrLogger{logger: logger}
}

func (s *stderrLogger) Write(data []byte) (int, error) {
	n, err := s.lockedBuffer.Write(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, data...)
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}
		s.logger.Debug("guest_stderr", "line", string(s.pending[:i]))
		s.pending = s.pending[i+1:]
	}
	return n, err
}

// Flush logs a trailing line without newline.
func (s *stderrLogger) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		s.logger.Debug("guest_stderr", "line", string(s.pending))
		s.pending = nil
	}
}
