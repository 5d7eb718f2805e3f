package util

import "go.uber.org/zap"

// NewLogger builds a json logger in production and a console one elsewhere.
// Every entry carries the app name so shared log sinks can tell services apart.
func NewLogger(env string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.InitialFields = map[string]any{"app": GetAppName()}

	return zap.Must(cfg.Build()).Sugar()
}
