package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider = "llm_provider"
	FieldModel    = "llm_model"
	FieldRole     = "job_role"
	FieldURL      = "url"
)

// StringFields builds zap string fields from key/value pairs, skipping pairs
// whose key or value is blank. An odd trailing key is ignored.
func StringFields(pairs ...string) []zap.Field {
	result := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithCommonFields tags logger with the llm provider and model.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(FieldProvider, provider, FieldModel, model)...)
}

// WithJob tags logger with the posting role and the page it came from.
func WithJob(logger *zap.Logger, role, url string) *zap.Logger {
	return WithFields(logger, StringFields(FieldRole, role, FieldURL, url)...)
}
