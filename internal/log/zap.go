package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	logLevel string
	encoding string
}

type Option func(o *options)

func WithLogLevel(lv string) Option {
	return func(o *options) { o.logLevel = lv }
}

// WithEncoding: "json" (padrão) ou "console".
func WithEncoding(enc string) Option {
	return func(o *options) { o.encoding = enc }
}

func NewLogger(opts ...Option) (*zap.Logger, error) {
	o := options{
		logLevel: "info",
		encoding: "json",
	}
	for _, e := range opts {
		e(&o)
	}

	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var al zap.AtomicLevel
	if err := al.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("al.UnmarshalText: level=%s, %w", o.logLevel, err)
	}

	zc := zap.Config{
		DisableCaller:     true,
		DisableStacktrace: true,
		Level:             al,
		Encoding:          o.encoding,
		EncoderConfig:     encConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	zl, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("zap.Build: %w", err)
	}
	return zl, nil
}

func Must(zl *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return zl
}
