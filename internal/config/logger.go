package config

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide zap logger. Production config
// (JSON, sampled) everywhere except dev, which gets the readable
// console encoder.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "dev" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
