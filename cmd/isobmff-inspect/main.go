package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alchemy/rotoslog"
	"github.com/phsym/console-slog"
	"m7s.live/isobmff/pkg"
	"m7s.live/isobmff/pkg/box"
	"m7s.live/isobmff/pkg/config"
)

func main() {
	conf := flag.String("c", "", "config file")
	strict := flag.Bool("strict", false, "abort on the first malformed box")
	format := flag.String("format", "", "output format: tree, json or yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-c config.yaml] [-strict] [-format json|yaml|tree] file...\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), "config options (yaml key, environment variable):")
		config.Usage(flag.CommandLine.Output())
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	inspect, _, err := config.Load(*conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strict":
			inspect.Strict = *strict
		case "format":
			inspect.Format = *format
		}
	})
	if err = inspect.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := newLogger(inspect)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	os.Exit(run(os.Stdout, inspect, logger, flag.Args()))
}

func newLogger(inspect *config.Inspect) (*slog.Logger, error) {
	var handler pkg.MultiLogHandler
	handler.SetLevel(pkg.ParseLevel(inspect.LogLevel))
	handler.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{Level: pkg.TraceLevel, TimeFormat: "15:04:05.000"}))
	if inspect.LogDir != "" {
		builder := func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
			return console.NewHandler(w, &console.HandlerOptions{NoColor: true, Level: pkg.TraceLevel, TimeFormat: "2006-01-02 15:04:05.000"})
		}
		file, err := rotoslog.NewHandler(rotoslog.LogHandlerBuilder(builder), rotoslog.LogDir(inspect.LogDir), rotoslog.MaxFileSize(inspect.LogMaxSize), rotoslog.DateTimeLayout("2006-01-02T15"), rotoslog.MaxRotatedFiles(inspect.LogMaxFiles))
		if err != nil {
			return nil, err
		}
		handler.Add(file)
	}
	return slog.New(&handler), nil
}

// run parses every file and renders the result. Files that fail to open or,
// in strict mode, to parse are reported and skipped; the exit code is then 1.
func run(w io.Writer, inspect *config.Inspect, logger *slog.Logger, files []string) (code int) {
	docs := make([]document, 0, len(files))
	for _, name := range files {
		boxes, err := parseFile(name, inspect, logger.With("file", name))
		if err != nil {
			logger.Error("inspect failed", "file", name, "error", err)
			code = 1
			continue
		}
		docs = append(docs, document{File: name, Boxes: boxes})
	}
	if err := render(w, inspect.Format, docs); err != nil {
		logger.Error("render failed", "error", err)
		code = 1
	}
	return
}

func parseFile(name string, inspect *config.Inspect, logger *slog.Logger) ([]*box.Box, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	parser := box.NewParser(box.Options{Strict: inspect.Strict, Preview: inspect.Hexdump, Logger: logger})
	return parser.Parse(file)
}
