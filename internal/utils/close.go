package utils

import (
	"io"

	"github.com/MrSnakeDoc/skylog/internal/logger"
)

// Close closes c and ignores any error. For best-effort cleanup in defers.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs a failure under what.
func CloseLogged(c io.Closer, what string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
	}
}
