package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var zeroLevels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

type zeroLogger struct {
	cfg    *LoggerConfig
	logger zerolog.Logger
}

func newZeroLogger(cfg *LoggerConfig) *zeroLogger {
	l := &zeroLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zeroLogger) level() zerolog.Level {
	if lvl, ok := zeroLevels[l.cfg.Level]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *zeroLogger) Init() {
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(l.cfg.FilePath, "cliptag.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(fileWriter, os.Stdout)

	l.logger = zerolog.New(multi).
		Level(l.level()).
		With().
		Timestamp().
		Str(string(AppName), appName).
		Str(string(LoggerName), "zerolog").
		Logger()
}

func (l *zeroLogger) event(ev *zerolog.Event, cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	ev.Str("Category", string(cat)).
		Str("SubCategory", string(sub)).
		Fields(logParamsToZeroParams(extra)).
		Msg(msg)
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Debug(), cat, sub, msg, extra)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msgf(template, args...)
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Info(), cat, sub, msg, extra)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msgf(template, args...)
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Warn(), cat, sub, msg, extra)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msgf(template, args...)
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Error(), cat, sub, msg, extra)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msgf(template, args...)
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Fatal(), cat, sub, msg, extra)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msgf(template, args...)
}
