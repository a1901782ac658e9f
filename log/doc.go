// Package log provides leveled logging for Search4People.
//
// The default logger writes to stderr through the standard library. Callers
// that want richer output can install a golog-backed logger:
//
//	logger := log.NewGologLogger(golog.Default)
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
package log
