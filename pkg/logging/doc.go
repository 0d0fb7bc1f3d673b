// Package logging provides structured logging configuration for seedql.
//
// This package wraps log/slog so every seedql component logs the same way.
// Components accept a *slog.Logger in their constructor; a nil logger is
// replaced with Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	registry := seed.NewRegistry(engine, seed.WithLogger(logger))
//
// Loggers handed to components are scoped with Component, which adds a
// "component" attribute to every record.
package logging
