// Package logger provides a small slog factory plus attribute helpers with the
// keys used across the tripkit core (notification_id, category, conn_state, ...).
//
// The factory keeps logger construction in one place so every package logs with
// the same shape:
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithFormat(logger.FormatJSON),
//	)
//	log.Warn("delivery failed", logger.Channel("push"), logger.Error(err))
//
// Attribute helpers return empty attrs for nil values, so call sites never
// need nil checks.
package logger
