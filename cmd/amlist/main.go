// amlist prints the account managers found in a BOINC project list document.
// Run with: go run ./cmd/amlist -format markdown all_projects_list.xml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-foundry/accountmgr-go-sdk/accountmgr"
)

const version = "0.1.0"

// Exit codes: 0=ok, 1=validation issues, 2=fatal.
const (
	exitOK      = 0
	exitInvalid = 1
	exitFatal   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("amlist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "text|markdown|org|json|xml")
	lenient := fs.Bool("lenient", false, "tolerate HTML entities and unclosed tags")
	validate := fs.Bool("validate", false, "report missing or duplicate fields (exit 1 on issues)")
	verbose := fs.Bool("v", false, "log discarded elements")
	noColor := fs.Bool("no-color", false, "disable colored text output")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: amlist [flags] [file.xml | -]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFatal
	}
	if *showVersion {
		fmt.Fprintf(stdout, "amlist %s\n", version)
		return exitOK
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitFatal
	}

	logger := newLogger(stderr, *verbose)
	defer func() { _ = logger.Sync() }()

	in, name, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		logger.Error("open input", zap.Error(err))
		return exitFatal
	}
	defer in.Close()

	list, err := accountmgr.ParseReaderWithOptions(in, accountmgr.ParseOptions{
		Lenient: *lenient,
		Logger:  logger.Named("parser"),
	})
	if err != nil {
		logger.Error("parse failed", zap.String("input", name), zap.Error(err))
		return exitFatal
	}
	logger.Debug("parsed account managers", zap.String("input", name), zap.Int("count", len(list)))

	if err := write(context.Background(), stdout, list, *format, !*noColor); err != nil {
		logger.Error("write output", zap.String("format", *format), zap.Error(err))
		return exitFatal
	}

	if *validate {
		if err := accountmgr.Validate(list); err != nil {
			var ve *accountmgr.ValidationError
			if errors.As(err, &ve) {
				for _, issue := range ve.Issues {
					logger.Warn("validation issue", zap.String("issue", issue))
				}
			}
			return exitInvalid
		}
	}
	return exitOK
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func openInput(arg string, stdin io.Reader) (io.ReadCloser, string, error) {
	if arg == "" || arg == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, arg, err
	}
	return f, arg, nil
}

func write(ctx context.Context, w io.Writer, list []accountmgr.AccountManager, format string, colorize bool) error {
	if accountmgr.Format(format) == accountmgr.FormatText {
		writeText(w, list, colorize)
		return nil
	}
	out, err := accountmgr.DefaultConverterRegistry.Convert(ctx, "records", format, list, nil)
	if err != nil {
		return fmt.Errorf("format %q: %w", format, err)
	}
	text, ok := out.(string)
	if !ok {
		return fmt.Errorf("format %q: unexpected %T", format, out)
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(text, "\n"))
	return err
}

func writeText(w io.Writer, list []accountmgr.AccountManager, colorize bool) {
	name := color.New(color.FgGreen, color.Bold)
	link := color.New(color.FgBlue)
	if !colorize {
		name.DisableColor()
		link.DisableColor()
	}
	for _, am := range list {
		name.Fprintln(w, am.Name)
		if am.URL != "" {
			link.Fprintf(w, "  URL: %s\n", am.URL)
		}
		if am.ImageURL != "" {
			link.Fprintf(w, "  Image: %s\n", am.ImageURL)
		}
		if desc := accountmgr.PlainText(am.Description); desc != "" {
			fmt.Fprintf(w, "  %s\n", desc)
		}
	}
}
