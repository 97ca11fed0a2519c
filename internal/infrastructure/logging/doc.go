// Package logging provides structured logging for Show Logic Core.
//
// It wraps log/slog so every component logs with the same shape: JSON in
// production, text while developing, and service/version fields on every
// entry. Components take a child logger tagged with their name:
//
//	logger := logging.New(cfg.Logging, version)
//	engineLog := logger.Component("engine")
//	engineLog.Warn("no handler for trigger", "trigger", key)
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets, tokens or passwords.
package logging
