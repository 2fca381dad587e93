package bake

import (
	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/logger"
)

// LogProgress reports progress through the logger.
type LogProgress struct{}

func (LogProgress) Begin(target string, total int) {
	logger.Info("Processing "+target, zap.Int("triangles", total))
}

func (LogProgress) Update(target string, current, total int) {
	logger.Debug("Processing "+target,
		zap.Int("current", current),
		zap.Int("total", total))
}

func (LogProgress) End(target string) {
	logger.Debug("Finished " + target)
}

type nopProgress struct{}

func (nopProgress) Begin(string, int)       {}
func (nopProgress) Update(string, int, int) {}
func (nopProgress) End(string)              {}
