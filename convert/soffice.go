package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lvillar/marginblank"
)

// Soffice converts PDFs to DOCX with a headless LibreOffice. The copy is
// written next to the source at marginblank.ConvertedPath, so
// "report_blanked.pdf" becomes "report_blanked.docx".
type Soffice struct {
	Command string       // executable (default: "soffice")
	Filter  string       // --convert-to argument (default: "docx:MS Word 2007 XML")
	Logger  *slog.Logger // default: slog.Default()
}

// Convert implements Converter.
func (s *Soffice) Convert(ctx context.Context, src string) (string, error) {
	command := s.Command
	if command == "" {
		command = "soffice"
	}
	filter := s.Filter
	if filter == "" {
		filter = "docx:MS Word 2007 XML"
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return "", wrap(src, err)
	}
	ext := strings.SplitN(filter, ":", 2)[0]
	dst := marginblank.ConvertedPath(abs, ext)
	// soffice names its output after the input with only the extension changed.
	produced := strings.TrimSuffix(abs, filepath.Ext(abs)) + filepath.Ext(dst)

	cmd := exec.CommandContext(ctx, command,
		"--headless",
		"--infilter=writer_pdf_import",
		"--convert-to", filter,
		"--outdir", filepath.Dir(abs),
		abs,
	)
	// soffice may leave helper processes holding the output pipes.
	cmd.WaitDelay = 5 * time.Second
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Info("convert: running", "command", command, "src", abs)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		if msg := strings.TrimSpace(out.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return "", wrap(src, err)
	}
	if _, err := os.Stat(produced); err != nil {
		return "", marginblank.NewError(marginblank.KindConversion, "Convert", src,
			fmt.Errorf("converter produced no %s: %s", filepath.Base(produced), strings.TrimSpace(out.String())))
	}
	if produced != dst {
		if err := os.Rename(produced, dst); err != nil {
			return "", wrap(src, err)
		}
	}
	logger.Info("convert: done", "dst", dst)
	return dst, nil
}
