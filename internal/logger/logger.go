package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"`
	Type      string    `json:"type"`
	FrameType string    `json:"frame_type,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Size      int       `json:"size,omitempty"`
	Building  string    `json:"building,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Logger writes one JSON line per protocol event to a per-session file.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	enc       *json.Encoder
	logDir    string
	sessionID string
}

func NewLogger(sessionID string) (*Logger, error) {
	logDir, err := getLogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get log directory: %w", err)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("%s.log", sessionID))

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:      file,
		enc:       json.NewEncoder(file),
		logDir:    logDir,
		sessionID: sessionID,
	}, nil
}

func getLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	var logDir string
	switch runtime.GOOS {
	case "windows":
		logDir = filepath.Join(homeDir, "AppData", "Local", "kone-driver", "logs")
	case "darwin":
		logDir = filepath.Join(homeDir, "Library", "Logs", "kone-driver")
	default: // linux and others
		logDir = filepath.Join(homeDir, ".local", "share", "kone-driver", "logs")
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			logDir = filepath.Join(xdgData, "kone-driver", "logs")
		}
	}

	return logDir, nil
}

func (l *Logger) Log(entry LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = time.Now()
	l.enc.Encode(entry)
}

// LogFrame records one wire frame in either direction.
func (l *Logger) LogFrame(direction, frameType, requestID string, size int) {
	l.Log(LogEntry{
		Direction: direction,
		Type:      "frame",
		FrameType: frameType,
		RequestID: requestID,
		Size:      size,
	})
}

func (l *Logger) LogError(direction string, err error) {
	l.Log(LogEntry{
		Direction: direction,
		Type:      "error",
		Error:     err.Error(),
	})
}

func (l *Logger) LogEvent(message string) {
	l.Log(LogEntry{
		Direction: "client",
		Type:      "event",
		Message:   message,
	})
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) GetLogPath() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}

func (l *Logger) GetSessionID() string {
	return l.sessionID
}
