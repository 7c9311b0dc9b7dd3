package rowpdf

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// background imports pages of an existing PDF as templates
type background struct {
	importer *gofpdi.Importer
	rs       io.ReadSeeker
}

func newBackground(data []byte) *background {
	return &background{importer: gofpdi.NewImporter(), rs: bytes.NewReader(data)}
}

// draw places source page pageNum (1-based) at the top left of the current
// page, scaled to width. The importer panics on unreadable input, which is
// returned as an error instead.
func (b *background) draw(pdf *fpdf.Fpdf, pageNum int, width float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to import background page %d: %v", pageNum, r)
		}
	}()
	tpl := b.importer.ImportPageFromStream(pdf, &b.rs, pageNum, "/MediaBox")
	b.importer.UseImportedTemplate(pdf, tpl, 0, 0, width, 0)
	return nil
}
