package parser

import (
	"io"

	"github.com/sirupsen/logrus"
)

type config struct {
	log *logrus.Entry
}

// Option configures a tokenizer.
type Option func(*config)

// WithLogger makes the tokenizer trace its state transitions to log. They
// are written at trace level only.
func WithLogger(log *logrus.Entry) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{log: discardLogger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var discardLogger = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}()
