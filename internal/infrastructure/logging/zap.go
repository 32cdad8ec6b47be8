package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const appName = "cliptag"

var zapLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

type zapLogger struct {
	cfg    *LoggerConfig
	logger *zap.SugaredLogger
}

func newZapLogger(cfg *LoggerConfig) *zapLogger {
	l := &zapLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zapLogger) level() zapcore.Level {
	if lvl, ok := zapLevels[l.cfg.Level]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

func (l *zapLogger) Init() {
	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(l.cfg.FilePath, "cliptag.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if l.cfg.Encoding == "console" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(enc, fileWriter, l.level()),
		zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), l.level()),
	)

	l.logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		Sugar().
		With(string(AppName), appName, string(LoggerName), "zap")
}

func (l *zapLogger) withExtra(cat Category, sub SubCategory, extra map[ExtraKey]any) []any {
	params := logParamsToZapParams(extra)
	params = append(params, "Category", string(cat), "SubCategory", string(sub))
	return params
}

func (l *zapLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Debugw(msg, l.withExtra(cat, sub, extra)...)
}

func (l *zapLogger) Debugf(template string, args ...any) {
	l.logger.Debugf(template, args...)
}

func (l *zapLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Infow(msg, l.withExtra(cat, sub, extra)...)
}

func (l *zapLogger) Infof(template string, args ...any) {
	l.logger.Infof(template, args...)
}

func (l *zapLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Warnw(msg, l.withExtra(cat, sub, extra)...)
}

func (l *zapLogger) Warnf(template string, args ...any) {
	l.logger.Warnf(template, args...)
}

func (l *zapLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Errorw(msg, l.withExtra(cat, sub, extra)...)
}

func (l *zapLogger) Errorf(template string, args ...any) {
	l.logger.Errorf(template, args...)
}

func (l *zapLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Fatalw(msg, l.withExtra(cat, sub, extra)...)
}

func (l *zapLogger) Fatalf(template string, args ...any) {
	l.logger.Fatalf(template, args...)
}
