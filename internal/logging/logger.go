package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"
)

func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Gorm routes gorm's own logging through l. Record-not-found is expected
// traffic for lookups and is not logged.
func Gorm(l *zap.Logger) logger.Interface {
	std, err := zap.NewStdLogAt(l.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		std = zap.NewStdLog(l.Named("gorm"))
	}
	return logger.New(std, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
