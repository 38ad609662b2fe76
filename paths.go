package marginblank

import (
	"path/filepath"
	"strings"
)

// Suffix is appended to the source base name of every derived artifact.
const Suffix = "_blanked"

// DocxExt is the extension of the converted word-processing copy.
const DocxExt = ".docx"

// RedactedPath returns the path of the redacted copy of src:
// "/docs/report.pdf" becomes "/docs/report_blanked.pdf".
func RedactedPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + Suffix + ext
}

// ConvertedPath returns the path of the converted copy of src with the given
// extension, e.g. ConvertedPath("/docs/report.pdf", ".docx") is
// "/docs/report_blanked.docx". A src that is already a redacted copy keeps a
// single suffix: "/docs/report_blanked.pdf" gives the same result.
func ConvertedPath(src, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := strings.TrimSuffix(src, filepath.Ext(src))
	if strings.HasSuffix(filepath.Base(base), Suffix) {
		return base + ext
	}
	return base + Suffix + ext
}
