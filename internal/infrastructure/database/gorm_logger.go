package database

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sellnext/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM output through the shared logrus logger.
type gormLogger struct {
	level gormlogger.LogLevel
}

func NewGormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.entry().WithField("data", data).Info(msg)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.entry().WithField("data", data).Warn(msg)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.entry().WithField("data", data).Error(msg)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.entry().WithFields(logrus.Fields{
		"elapsed": elapsed.String(),
		"sql":     sql,
		"rows":    rows,
	})

	switch {
	case err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithField("error", err.Error()).Error("SQL query error")
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		entry.Warn("Slow SQL query")
	case l.level >= gormlogger.Info:
		entry.Debug("SQL query executed")
	}
}

func (l *gormLogger) entry() *logrus.Entry {
	return logger.WithFields(logrus.Fields{"source": "gorm"})
}
