/*
Package log provides structured logging via zerolog: a global Logger
configured once at startup (JSON or console output, level-filtered), plus
WithComponent and WithSession helpers for tagging child loggers used by the
store, executor, persistence and server packages.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	sessionLog := log.WithSession(sessionID)
	sessionLog.Info().Str("verb", "SET").Msg("command executed")
*/
package log
