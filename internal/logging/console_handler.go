package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleTimeFormat keeps console lines short; the JSON handler carries the
// full timestamp.
const consoleTimeFormat = "2006-01-02 15:04:05"

// shortIDLength is how much of a correlation id the console header shows.
const shortIDLength = 8

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO  [selection] Show.S01E01.mkv/select #1f0c9a2b: audio selected kept=2
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	addSource bool
	// bound holds attributes from WithAttrs, already flattened with the
	// group prefix active at the time they were added.
	bound  []kv
	groups []string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

type consoleSubject struct {
	component string
	file      string
	stage     string
	requestID string
}

// take consumes the header keys; it reports false for ordinary fields.
func (s *consoleSubject) take(item kv) bool {
	var dst *string
	switch item.key {
	case FieldComponent:
		dst = &s.component
	case FieldFile:
		dst = &s.file
	case FieldStage:
		dst = &s.stage
	case FieldCorrelationID:
		dst = &s.requestID
	default:
		return false
	}
	if *dst == "" {
		*dst = strings.TrimSpace(attrString(item.value))
	}
	return true
}

func (s consoleSubject) write(buf *bytes.Buffer) {
	if s.component != "" {
		buf.WriteString(" [")
		buf.WriteString(s.component)
		buf.WriteByte(']')
	}
	if s.file != "" || s.stage != "" {
		buf.WriteByte(' ')
		if s.file != "" {
			buf.WriteString(filepath.Base(s.file))
		}
		if s.file != "" && s.stage != "" {
			buf.WriteByte('/')
		}
		buf.WriteString(s.stage)
	}
	if s.requestID != "" {
		id := s.requestID
		if len(id) > shortIDLength {
			id = id[:shortIDLength]
		}
		buf.WriteString(" #")
		buf.WriteString(id)
	}
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make([]kv, 0, len(h.bound)+record.NumAttrs())
	var subject consoleSubject
	for _, item := range h.bound {
		if !subject.take(item) {
			fields = append(fields, item)
		}
	}
	var recordAttrs []kv
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&recordAttrs, h.groups, attr)
		return true
	})
	for _, item := range recordAttrs {
		if !subject.take(item) {
			fields = append(fields, item)
		}
	}

	var buf bytes.Buffer
	buf.Grow(128 + 24*len(fields))
	buf.WriteString(ts.Local().Format(consoleTimeFormat))
	buf.WriteByte(' ')
	buf.WriteString(padLevel(record.Level))
	subject.write(&buf)
	buf.WriteString(": ")
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	for _, item := range fields {
		if item.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(item.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(item.value))
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" (")
			buf.WriteString(filepath.Base(src.File))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(src.Line))
			buf.WriteByte(')')
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.bound = append([]kv(nil), h.bound...)
	flattenAttrs(&next.bound, h.groups, attrs)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// padLevel returns the level name padded to five columns so messages align.
func padLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
