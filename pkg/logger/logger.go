// Package logger wires Zap for the whole service.
package logger

import (
	"go.uber.org/zap"
)

// New builds a logger tuned to the runtime environment: JSON at info level
// for production, console at debug level otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
