package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/metafetch/internal/printer"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level string    // "debug","info","warn","error"
	JSON  bool      // structured output for CI / log shipping
	Color bool      // colorize console messages
	Out   io.Writer // default os.Stderr
}

var (
	mu       sync.RWMutex
	zlog     *zap.SugaredLogger
	out      io.Writer = os.Stderr
	p        *printer.ColorPrinter
	colorize = true
	jsonOut  bool
	curLevel = zapcore.InfoLevel
	ready    atomic.Bool
)

func init() {
	Configure(Options{Level: "info", Color: true})
}

// Configure (re)builds the global logger.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	configureLocked(opts)
}

func configureLocked(opts Options) {
	if opts.Out != nil {
		out = opts.Out
	}

	var enc zapcore.Encoder
	if opts.JSON {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.CallerKey = ""
		encCfg.MessageKey = "msg"
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{MessageKey: "msg"})
	}

	curLevel = parseLevel(opts.Level)
	core := zapcore.NewCore(enc, zapcore.AddSync(writerAdapter{out}), curLevel)
	zlog = zap.New(core).Sugar()

	jsonOut = opts.JSON
	colorize = opts.Color && !opts.JSON
	if p == nil {
		p = printer.NewColorPrinter()
	}

	ready.Store(true)
}

// SetLevel adjusts the level at runtime ("debug","info","warn","error").
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	configureLocked(Options{Level: level, Out: out, Color: colorize, JSON: jsonOut})
}

// SetOutput replaces the writer (io.Discard in tests).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	configureLocked(Options{Level: curLevel.String(), Out: w, Color: colorize, JSON: jsonOut})
}

// UseTestMode silences logs during tests.
func UseTestMode() {
	Configure(Options{
		Level: "error",
		Out:   io.Discard,
	})
}

// Enabled reports whether messages at level would be written.
func Enabled(level string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return ready.Load() && curLevel.Enabled(parseLevel(level))
}

// ---- Public logging API ----

func Info(msg string, args ...interface{}) {
	write(zapcore.InfoLevel, "✨ ", msg, args, func(p *printer.ColorPrinter) func(string, ...interface{}) string { return p.Info })
}

func Success(msg string, args ...interface{}) {
	write(zapcore.InfoLevel, "✅ ", msg, args, func(p *printer.ColorPrinter) func(string, ...interface{}) string { return p.Success })
}

func LogError(msg string, args ...interface{}) {
	write(zapcore.ErrorLevel, "❌ ", msg, args, func(p *printer.ColorPrinter) func(string, ...interface{}) string { return p.Error })
}

func Warn(msg string, args ...interface{}) {
	write(zapcore.WarnLevel, "⚠️ ", msg, args, func(p *printer.ColorPrinter) func(string, ...interface{}) string { return p.Warning })
}

func Debug(msg string, args ...interface{}) {
	write(zapcore.DebugLevel, "🛠️ ", msg, args, func(p *printer.ColorPrinter) func(string, ...interface{}) string { return p.Debug })
}

// ---- Tables ----

// CreateTable renders to w, or to stdout when w is nil.
func CreateTable(w io.Writer, headers []string) *tablewriter.Table {
	if w == nil {
		w = os.Stdout
	}
	t := tablewriter.NewTable(w)
	t.Header(headers)
	return t
}

// ---- internals ----

type writerAdapter struct{ w io.Writer }

func (wa writerAdapter) Write(b []byte) (int, error) { return wa.w.Write(b) }

func write(level zapcore.Level, icon, msg string, args []interface{},
	pick func(*printer.ColorPrinter) func(string, ...interface{}) string,
) {
	if !ready.Load() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if zlog == nil || p == nil || !curLevel.Enabled(level) {
		return
	}

	var line string
	if colorize {
		line = pick(p)(icon+msg, args...)
	} else {
		line = fmt.Sprintf(msg, args...)
	}

	switch level {
	case zapcore.DebugLevel:
		zlog.Debug(line)
	case zapcore.WarnLevel:
		zlog.Warn(line)
	case zapcore.ErrorLevel:
		zlog.Error(line)
	default:
		zlog.Info(line)
	}
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
