package mcpserver

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// diagnosticLogger writes server diagnostics to a file rather than
// stdout/stderr: stdio carries the JSON-RPC protocol, so any stray log
// line there would corrupt a client's read loop. Grounded on the
// teacher's internal/mcp/diagnostics.go DiagnosticLogger, narrowed to the
// single log destination this server needs.
type diagnosticLogger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	filePath string
}

// newDiagnosticLogger opens a timestamped log file under the OS temp
// directory, falling back to a discarded logger if that fails — logging
// is never allowed to block server startup.
func newDiagnosticLogger() *diagnosticLogger {
	dl := &diagnosticLogger{}

	logDir := filepath.Join(os.TempDir(), "lazyload-mcp-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		dl.logger = log.New(io.Discard, "", 0)
		return dl
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("mcp-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		dl.logger = log.New(io.Discard, "", 0)
		return dl
	}

	dl.file = file
	dl.filePath = logPath
	dl.logger = log.New(file, "[lazyload-mcp] ", log.LstdFlags|log.Lshortfile)
	return dl
}

func (dl *diagnosticLogger) Printf(format string, v ...any) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf(format, v...)
}

func (dl *diagnosticLogger) Close() error {
	if dl == nil || dl.file == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.file.Close()
}
