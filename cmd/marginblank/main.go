// Command marginblank blanks the margins of a PDF.
//
// # Installation
//
//	go install github.com/lvillar/marginblank/cmd/marginblank@latest
//
// # Usage
//
//	marginblank info report.pdf
//	marginblank blank -margins 36,72,36,72 [-convert] report.pdf
//	marginblank preview -margins 72 -page 2 -w 800 -h 1000 -o page2.png report.pdf
//	marginblank serve [-listen :8080]
//	marginblank mcp
//
// Margins are in points (72 points = 1 inch), given as "left,top,right,bottom"
// or as a single value for all four edges. The blanked copy is written next
// to the source as <name>_blanked.pdf, and with -convert also as
// <name>_blanked.docx.
//
// Settings are read from the YAML file named by MARGINBLANK_CONFIG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/config"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/mcp"
	"github.com/lvillar/marginblank/preview"
	"github.com/lvillar/marginblank/server"
	"github.com/lvillar/marginblank/session"
)

const usage = `usage: marginblank <command> [flags] [file.pdf]

commands:
  info     print page count and page sizes
  blank    write <name>_blanked.pdf (and .docx with -convert)
  preview  render one page with the margin bands as PNG
  serve    run the HTTP API
  mcp      run the MCP server on stdio
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marginblank: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marginblank: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "marginblank: %s\n", marginblank.Message(err))
		logger.Debug("command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	lvl, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string, stdout io.Writer) error {
	opts, err := cfg.SessionOptions(logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "info":
		return runInfo(args, opts, stdout)
	case "blank":
		return runBlank(ctx, args, opts, stdout)
	case "preview":
		return runPreview(ctx, args, opts, stdout)
	case "serve":
		return runServe(ctx, cfg, logger, args, opts)
	case "mcp":
		return runMCP(ctx, logger, opts)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func parseFile(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", marginblank.NewError(marginblank.KindNoFileSelected, fs.Name(), "", nil)
	}
	return fs.Arg(0), nil
}

func openSession(path, margins string, opts []session.Option) (*session.Session, error) {
	sess := session.New(opts...)
	if _, err := sess.Load(path); err != nil {
		return nil, err
	}
	if margins != "" {
		m, err := geometry.ParseMargins(margins)
		if err != nil {
			return nil, err
		}
		if _, err := sess.SetMargins(m); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func runInfo(args []string, opts []session.Option, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}
	sess, err := openSession(path, "", opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	doc := sess.Document()
	fmt.Fprintf(stdout, "%s: PDF %s, %d pages\n", doc.Path, doc.Version, doc.PageCount())
	for _, p := range doc.Pages() {
		fmt.Fprintf(stdout, "  page %d: %s pt\n", p.Number(), p.Size)
	}
	return nil
}

func runBlank(ctx context.Context, args []string, opts []session.Option, stdout io.Writer) error {
	fs := flag.NewFlagSet("blank", flag.ContinueOnError)
	margins := fs.String("margins", "", `band widths in points: "left,top,right,bottom" or one value`)
	doConvert := fs.Bool("convert", false, "also convert the blanked copy to DOCX")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}
	sess, err := openSession(path, *margins, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !*doConvert {
		res, err := sess.Commit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Path)
		return nil
	}
	out, err := sess.CommitAndConvert(ctx)
	if out != nil {
		fmt.Fprintln(stdout, out.Redacted.Path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out.Converted)
	return nil
}

func runPreview(ctx context.Context, args []string, opts []session.Option, stdout io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	margins := fs.String("margins", "", `band widths in points: "left,top,right,bottom" or one value`)
	page := fs.Int("page", 1, "1-based page number")
	width := fs.Float64("w", 800, "viewport width in pixels")
	height := fs.Float64("h", 1000, "viewport height in pixels")
	output := fs.String("o", "", "output PNG (default: stdout)")
	path, err := parseFile(fs, args)
	if err != nil {
		return err
	}

	fitz := preview.NewFitz()
	defer fitz.Close()
	sess, err := openSession(path, *margins, append(opts, session.WithRasterizer(fitz)))
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, err := sess.Seek(*page - 1); err != nil {
		return err
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err = sess.WritePreviewPNG(ctx, geometry.Size{W: *width, H: *height}, w)
	return err
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, opts []session.Option) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", cfg.Server.Listen, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fitz := preview.NewFitz()
	defer fitz.Close()
	srv := server.New(logger, append(opts, session.WithRasterizer(fitz))...)
	return srv.ListenAndServe(ctx, *listen)
}

func runMCP(ctx context.Context, logger *slog.Logger, opts []session.Option) error {
	fitz := preview.NewFitz()
	defer fitz.Close()
	return mcp.NewServer(logger, append(opts, session.WithRasterizer(fitz))...).Run(ctx)
}
