package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// logrusLevel はlogrusのレベルに変換する
func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel は文字列からログレベルを解析する
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// idField はエントリに付与するID列のフィールド名
const idField = "id"

// lineFormatter は "[時刻] [レベル] [ID] メッセージ" 形式で出力する
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	timestamp := e.Time.Format("2006-01-02 15:04:05.000")
	level := levelName(e.Level)

	if id, ok := e.Data[idField].(string); ok && id != "" {
		fmt.Fprintf(&b, "[%s] [%s] [%s] %s\n", timestamp, level, id, e.Message)
	} else {
		fmt.Fprintf(&b, "[%s] [%s] %s\n", timestamp, level, e.Message)
	}
	return b.Bytes(), nil
}

func levelName(l logrus.Level) string {
	switch l {
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug.String()
	case logrus.InfoLevel:
		return LevelInfo.String()
	case logrus.WarnLevel:
		return LevelWarn.String()
	default:
		return LevelError.String()
	}
}

// Logger はスレッドセーフなロガー
type Logger struct {
	base *logrus.Logger
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(lineFormatter{})
	base.SetLevel(minLevel.logrusLevel())
	return &Logger{base: base}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.base.SetLevel(level.logrusLevel())
}

// SetOutput は出力先を変更する
func (l *Logger) SetOutput(out io.Writer) {
	l.base.SetOutput(out)
}

func (l *Logger) entry(id string) *logrus.Entry {
	return l.base.WithField(idField, id)
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(id string, format string, args ...any) {
	l.entry(id).Debugf(format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(id string, format string, args ...any) {
	l.entry(id).Infof(format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(id string, format string, args ...any) {
	l.entry(id).Warnf(format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(id string, format string, args ...any) {
	l.entry(id).Errorf(format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(id string, format string, args ...any) {
	Default.Debug(id, format, args...)
}

// Info は情報ログを出力する
func Info(id string, format string, args ...any) {
	Default.Info(id, format, args...)
}

// Warn は警告ログを出力する
func Warn(id string, format string, args ...any) {
	Default.Warn(id, format, args...)
}

// Error はエラーログを出力する
func Error(id string, format string, args ...any) {
	Default.Error(id, format, args...)
}
