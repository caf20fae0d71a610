// Package log builds the zap loggers used by the hangar binaries and routes client-go and controller-runtime logs through them.
package log

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	ctrlruntimelog "sigs.k8s.io/controller-runtime/pkg/log"
	ctrlruntimezap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

func (format *Format) Type() string   { return "string" }
func (format *Format) String() string { return string(*format) }

func (format *Format) Set(value string) error {
	switch Format(strings.ToLower(value)) {
	case FormatJSON:
		*format = FormatJSON
	case FormatConsole:
		*format = FormatConsole
	default:
		return fmt.Errorf("invalid log format %q: must be one of json, console", value)
	}
	return nil
}

type Options struct {
	Debug  bool
	Format Format
}

func NewDefaultOptions() Options {
	return Options{Format: FormatJSON}
}

func (opts *Options) AddFlags(fs *flag.FlagSet) {
	fs.BoolVar(&opts.Debug, "log-debug", opts.Debug, "enable debug logging")
	fs.Var(&opts.Format, "log-format", "log format: json or console")
}

func (opts *Options) AddPFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&opts.Debug, "log-debug", opts.Debug, "enable debug logging")
	fs.Var(&opts.Format, "log-format", "log format: json or console")
}

// New returns a logger writing to stderr.
func New(opts Options) *zap.Logger {
	return NewWithWriter(opts, os.Stderr)
}

func NewWithWriter(opts Options, w io.Writer) *zap.Logger {
	sink := zapcore.AddSync(w)

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	if opts.Format == FormatConsole {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(&ctrlruntimezap.KubeAwareEncoder{Encoder: encoder}, sink, level)

	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(sink))
}

// Install makes logger the global zap logger and the backend of klog and controller-runtime.
func Install(logger *zap.Logger) {
	zap.ReplaceGlobals(logger)
	bridge := zapr.NewLogger(logger.WithOptions(zap.AddCallerSkip(1)))
	klog.SetLogger(bridge)
	ctrlruntimelog.SetLogger(bridge)
}
