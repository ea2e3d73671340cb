// Package mcplog records MCP tool calls as JSON lines.
package mcplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxParamString is the longest string argument written verbatim.
const maxParamString = 64

// Entry is one logged tool call.
type Entry struct {
	Ts         string         `json:"ts"`
	Tool       string         `json:"tool"`
	Icon       string         `json:"icon,omitempty"`
	Params     map[string]any `json:"params"`
	DurationMs int64          `json:"duration_ms"`
	TextBytes  int            `json:"text_bytes"`
	ImageBytes int            `json:"image_bytes"`
	IsError    bool           `json:"is_error"`
	Error      *string        `json:"error"`
}

// Logger appends entries to a file. It is safe for concurrent use.
// A nil *Logger discards everything.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// Open opens path for appending, creating parent directories as needed.
// An empty path returns a nil Logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends e as one line.
func (l *Logger) Write(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(e)
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Record builds the entry for a finished call.
func Record(tool string, args map[string]any, start time.Time, result *mcp.CallToolResult, err error) Entry {
	e := Entry{
		Ts:         start.UTC().Format(time.RFC3339),
		Tool:       tool,
		Params:     Redact(args),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if name, ok := args["name"].(string); ok {
		e.Icon = name
	}
	if result != nil {
		e.IsError = result.IsError
		e.TextBytes, e.ImageBytes = ContentSize(result)
	}
	if err != nil {
		msg := err.Error()
		e.Error = &msg
	}
	return e
}

// Redact copies args, replacing long strings by a "<key>_len" entry so
// snippets and markup passed as arguments never reach the log.
func Redact(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxParamString {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = v
	}
	return out
}

// ContentSize returns the text and (base64) image payload sizes of result.
func ContentSize(result *mcp.CallToolResult) (text, image int) {
	if result == nil {
		return 0, 0
	}
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			text += len(v.Text)
		case mcp.ImageContent:
			image += len(v.Data)
		}
	}
	return text, image
}

// Now is replaced in tests.
var Now = time.Now
