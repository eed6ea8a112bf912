package util

import (
	"log/slog"
	"time"
)

// Trace 记录一段逻辑的耗时，用法：defer util.Trace("remove bg")()
func Trace(msg string) func() {
	start := time.Now()
	slog.Debug("enter " + msg)
	return func() {
		slog.Debug("exit "+msg, "cost", time.Since(start))
	}
}
