package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/heathj/mashtml/internal/config"
	"github.com/heathj/mashtml/parser"
)

var (
	tokenizeFormat   string
	tokenizeCoalesce bool
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [file]",
	Short: "Print the tokens of an HTML document",
	Long: `Tokenizes the named file, or standard input when no file is given, and
prints one token per line. The json format prints html5lib-style token arrays.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenize,
}

func init() {
	tokenizeCmd.Flags().StringVarP(&tokenizeFormat, "format", "f", config.FormatText, "output format, text or json")
	tokenizeCmd.Flags().BoolVar(&tokenizeCoalesce, "coalesce", false, "merge adjacent text tokens")
	rootCmd.AddCommand(tokenizeCmd)
}

func runTokenize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// flags win over the config file
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = tokenizeFormat
	}
	if cmd.Flags().Changed("coalesce") {
		cfg.Output.Coalesce = tokenizeCoalesce
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel()
	if verbose {
		level = logrus.TraceLevel
	}
	log := newLogger(cmd.ErrOrStderr(), level)

	name, input, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"input": name,
		"bytes": len(input),
	}).Debug("tokenizing")

	w := newTokenWriter(cmd.OutOrStdout(), cfg.Output)
	parser.Tokenize(string(input), w.write, parser.WithLogger(log))
	if err := w.flush(); err != nil {
		return errors.Wrap(err, "writing tokens")
	}

	log.WithField("tokens", w.count).Debug("done")
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, errors.Wrap(err, "reading stdin")
		}
		return "stdin", data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, errors.Wrapf(err, "reading %s", args[0])
	}
	return args[0], data, nil
}

// tokenWriter prints tokens as they are emitted. With coalescing on, runs of
// text tokens are held back and printed as one.
type tokenWriter struct {
	out      *bufio.Writer
	enc      *json.Encoder
	format   string
	coalesce bool

	text    strings.Builder
	hasText bool
	count   int
	err     error
}

func newTokenWriter(w io.Writer, opts config.Output) *tokenWriter {
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return &tokenWriter{
		out:      out,
		enc:      enc,
		format:   opts.Format,
		coalesce: opts.Coalesce,
	}
}

func (w *tokenWriter) write(t parser.Token) {
	if w.coalesce {
		if text, ok := t.(parser.Text); ok {
			w.text.WriteString(text.Data)
			w.hasText = true
			return
		}
		w.flushText()
	}
	w.print(t)
}

func (w *tokenWriter) flushText() {
	if !w.hasText {
		return
	}
	w.print(parser.Text{Data: w.text.String()})
	w.text.Reset()
	w.hasText = false
}

func (w *tokenWriter) print(t parser.Token) {
	if w.err != nil {
		return
	}
	w.count++
	switch w.format {
	case config.FormatJSON:
		w.err = w.enc.Encode(parser.ToTestToken(t))
	default:
		_, w.err = fmt.Fprintf(w.out, "%s %q\n", t.Type(), t.String())
	}
}

func (w *tokenWriter) flush() error {
	w.flushText()
	if w.err != nil {
		return w.err
	}
	return w.out.Flush()
}
