package slogx

import (
	"log/slog"
)

const (
	// KeyLoggerName is the key for the component that emitted a record.
	KeyLoggerName = "logger"
	// KeyProvider is the key for the provider a record refers to.
	KeyProvider = "provider"
	// KeyModel is the key for the model a record refers to.
	KeyModel = "model"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Provider identifies the provider involved in a log record.
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// Model identifies the model involved in a log record.
func Model(name string) slog.Attr {
	return slog.String(KeyModel, name)
}
