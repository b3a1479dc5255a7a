package testutil

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// PDFText places one string on a page, in PDF points from the bottom-left.
type PDFText struct {
	X, Y float64
	Size float64
	Text string
}

// PDFPage describes one page of a generated PDF.
type PDFPage struct {
	// MediaBox width and height. Zero values inherit the document default.
	Width, Height float64
	Texts         []PDFText
	// Image, when set, is embedded as an uncompressed DeviceGray XObject
	// drawn over the whole page.
	Image *image.Gray
}

// PDFSpec describes a generated PDF document.
type PDFSpec struct {
	// Default MediaBox set on the page tree root and inherited by pages.
	Width, Height float64
	Pages         []PDFPage
}

// GlyphWidth is the advance width, in text space units per 1000, given to
// every character of the generated font.
const GlyphWidth = 500

// BuildPDF renders spec as a minimal PDF 1.4 file with a correct xref table.
func BuildPDF(spec PDFSpec) []byte {
	w := &pdfWriter{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// Object numbering: 1 catalog, 2 page tree, 3 font, then per page:
	// page, content stream and optionally an image.
	const fontObj = 3
	next := 4
	type pageObjs struct{ page, content, image int }
	objs := make([]pageObjs, len(spec.Pages))
	kids := make([]string, len(spec.Pages))
	for i, p := range spec.Pages {
		objs[i] = pageObjs{page: next, content: next + 1}
		next += 2
		if p.Image != nil {
			objs[i].image = next
			next++
		}
		kids[i] = fmt.Sprintf("%d 0 R", objs[i].page)
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %s %s] >>",
		strings.Join(kids, " "), len(spec.Pages), num(spec.Width), num(spec.Height)))

	widths := strings.TrimSpace(strings.Repeat(fmt.Sprintf("%d ", GlyphWidth), 95))
	w.object(fontObj, fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica "+
		"/Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths))

	for i, p := range spec.Pages {
		o := objs[i]
		width, height := p.Width, p.Height
		if width == 0 {
			width = spec.Width
		}
		if height == 0 {
			height = spec.Height
		}

		var content strings.Builder
		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", fontObj)
		if p.Image != nil {
			resources += fmt.Sprintf(" /XObject << /Im0 %d 0 R >>", o.image)
			fmt.Fprintf(&content, "q %s 0 0 %s 0 0 cm /Im0 Do Q\n", num(width), num(height))
		}
		for _, t := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
				num(t.Size), num(t.X), num(t.Y), escapePDFString(t.Text))
		}

		dict := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << %s >> /Contents %d 0 R",
			resources, o.content)
		if p.Width != 0 || p.Height != 0 {
			dict += fmt.Sprintf(" /MediaBox [0 0 %s %s]", num(width), num(height))
		}
		w.object(o.page, dict+" >>")
		w.stream(o.content, "", []byte(content.String()))

		if p.Image != nil {
			b := p.Image.Bounds()
			pix := make([]byte, 0, b.Dx()*b.Dy())
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pix = append(pix, p.Image.GrayAt(x, y).Y)
				}
			}
			w.stream(o.image, fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d "+
				"/ColorSpace /DeviceGray /BitsPerComponent 8", b.Dx(), b.Dy()), pix)
		}
	}

	return w.finish(next)
}

// WritePDF writes BuildPDF(spec) into dir and returns the file path.
func WritePDF(t *testing.T, dir, name string, spec PDFSpec) string {
	t.Helper()
	return WriteFile(t, dir, name, string(BuildPDF(spec)))
}

// TextPDF is a letter-sized document with one line of text per page at x.
func TextPDF(x float64, lines ...string) PDFSpec {
	spec := PDFSpec{Width: 612, Height: 792}
	for _, l := range lines {
		spec.Pages = append(spec.Pages, PDFPage{Texts: []PDFText{{X: x, Y: 700, Size: 12, Text: l}}})
	}
	return spec
}

// SampleScanPDF returns a TextPDF's path plus the expected span of its line
// in points, useful for column ratio assertions.
func SampleScanPDF(t *testing.T, dir string) (path string, span float64) {
	t.Helper()
	line := "The quick brown fox"
	path = WritePDF(t, dir, "scan.pdf", TextPDF(72, line))
	return path, float64(len(line)) * 12 * GlyphWidth / 1000
}

// ScannedPDFPath writes a PDF whose pages embed the given images and returns
// its path.
func ScannedPDFPath(t *testing.T, dir string, pages ...*image.Gray) string {
	t.Helper()
	spec := PDFSpec{Width: 612, Height: 792}
	for _, img := range pages {
		spec.Pages = append(spec.Pages, PDFPage{Image: img})
	}
	return WritePDF(t, dir, filepath.Base(dir)+"-scanned.pdf", spec)
}

type pdfWriter struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *pdfWriter) object(n int, body string) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[n] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

func (w *pdfWriter) stream(n int, dictEntries string, data []byte) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[n] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", n, dictEntries, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *pdfWriter) finish(size int) []byte {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for n := 1; n < size; n++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[n])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
	return w.buf.Bytes()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
