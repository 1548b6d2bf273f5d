package handlers

import "log/slog"

func componentLogger(log *slog.Logger, name string) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", "handler."+name)
}
