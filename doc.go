// Package marginblank blanks rectangular margin bands on every page of a PDF.
//
// Margins are given in document space (PDF points, 72 per inch, origin at
// the top-left corner of each page) and are global to the document: the same
// four widths apply to every page regardless of the page's own size.
//
// The work is split across subpackages:
//
//   - geometry: margins model, preview scale, overlay and fill rectangles
//   - document: opening a PDF, page sizes and page navigation
//   - preview: rasterizing the current page and compositing the overlay
//   - redact: writing the blanked copy
//   - convert: handing the blanked copy to an external DOCX converter
//   - session: the single-document workflow used by the CLI, HTTP and MCP surfaces
//
// This package holds what they share: error kinds, margin policy and output
// path derivation.
package marginblank
