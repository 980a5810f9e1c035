package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Mirror is a log tee leg whose destination is attached after construction,
// for sinks that do not exist yet when the logger is built (the Discord log
// channel only comes up once the gateway is connected). Lines written before
// Bind are dropped; afterwards each line is forwarded asynchronously so a
// slow sink cannot stall logging.
type Mirror struct {
	mu   sync.Mutex
	send func(line string)
}

// NewMirror builds an unbound mirror.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Bind attaches the destination. Safe to call at most once, at any time.
func (m *Mirror) Bind(send func(line string)) {
	m.mu.Lock()
	m.send = send
	m.mu.Unlock()
}

// Write forwards one formatted log line to the bound sink.
func (m *Mirror) Write(p []byte) (int, error) {
	m.mu.Lock()
	send := m.send
	m.mu.Unlock()

	if send != nil {
		line := strings.TrimRight(string(p), "\n")
		go send(line)
	}
	return len(p), nil
}

// New creates a console slog.Logger with the provided level string. When a
// file path is given, log lines are mirrored there as well; any extra
// writers join the tee.
func New(level, file string, extra ...io.Writer) *slog.Logger {
	writers := []io.Writer{os.Stdout}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("logging: cannot open %s: %v (console only)", file, err)
		} else {
			writers = append(writers, f)
		}
	}
	for _, w := range extra {
		if w != nil {
			writers = append(writers, w)
		}
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
