package logger

import (
	"go.uber.org/zap"
)

// NewNamed creates a zap logger for the given environment, named after the
// service. Production gets JSON output at info level; everything else gets
// the development console encoder at debug level.
func NewNamed(env, service string) (*zap.Logger, error) {
	var log *zap.Logger
	var err error

	if env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return log.Named(service), nil
}
