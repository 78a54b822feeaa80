// Package logging builds the logrus loggers shared by the HTTP server, the
// MCP server, and the CLI, and tracks per-operation timing with correlation
// IDs.
package logging

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// New creates a logger writing to stdout.
func New(cfg domain.LoggingConfig) *logrus.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput creates a logger with the configured level and format. An
// unknown level falls back to info; any format other than "text" is JSON.
func NewWithOutput(cfg domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	return logger
}

type correlationKey struct{}

// WithCorrelation stores a correlation ID on the context.
func WithCorrelation(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationID returns the context's correlation ID, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

// Operation types
const (
	OperationToolCall    = "tool_call"
	OperationHTTPRequest = "http_request"
	OperationCLICommand  = "cli_command"
)

type operation struct {
	opType    string
	name      string
	startTime time.Time
}

// OperationLogger logs the start and end of named operations with their
// duration and outcome.
type OperationLogger struct {
	logger     *logrus.Logger
	mutex      sync.Mutex
	operations map[string]operation
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(logger *logrus.Logger) *OperationLogger {
	return &OperationLogger{
		logger:     logger,
		operations: make(map[string]operation),
	}
}

// StartOperation records the start of an operation and returns a context
// carrying a correlation ID along with the operation ID to pass to
// EndOperation.
func (ol *OperationLogger) StartOperation(ctx context.Context, opType, name string, params map[string]interface{}) (context.Context, string) {
	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
		ctx = WithCorrelation(ctx, correlationID)
	}
	operationID := uuid.New().String()

	ol.mutex.Lock()
	ol.operations[operationID] = operation{opType: opType, name: name, startTime: time.Now()}
	ol.mutex.Unlock()

	ol.logger.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"operation_id":   operationID,
		"operation_type": opType,
		"operation_name": name,
		"parameters":     params,
	}).Debug("Operation started")

	return ctx, operationID
}

// EndOperation logs completion of an operation started with StartOperation.
func (ol *OperationLogger) EndOperation(ctx context.Context, operationID string, err error) time.Duration {
	ol.mutex.Lock()
	op, ok := ol.operations[operationID]
	delete(ol.operations, operationID)
	ol.mutex.Unlock()

	if !ok {
		ol.logger.WithField("operation_id", operationID).Warn("End of unknown operation")
		return 0
	}

	duration := time.Since(op.startTime)
	entry := ol.logger.WithFields(logrus.Fields{
		"correlation_id": CorrelationID(ctx),
		"operation_id":   operationID,
		"operation_type": op.opType,
		"operation_name": op.name,
		"duration":       duration,
		"success":        err == nil,
	})

	if err != nil {
		entry.WithError(err).Error("Operation failed")
	} else {
		entry.Info("Operation completed")
	}

	return duration
}

// Active returns the number of operations started but not yet ended.
func (ol *OperationLogger) Active() int {
	ol.mutex.Lock()
	defer ol.mutex.Unlock()
	return len(ol.operations)
}
