package export

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
)

// DocumentMIME PDF MIME 타입
const DocumentMIME = "application/pdf"

const (
	coreFamily  = "Helvetica"
	fontFamily  = "report"
	rowHeight   = 7.0
	pageMarginB = 15.0
)

// DocumentOptions 보고서 렌더링 설정
type DocumentOptions struct {
	// FontPath is a TrueType font with Hangul glyphs. When it is empty or
	// cannot be loaded the core Helvetica font is used instead.
	FontPath string
	// FontBytes takes precedence over FontPath.
	FontBytes []byte
	// Now stamps the title page; zero means time.Now.
	Now time.Time
}

type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

// Document renders a title page with the site profile followed by one
// section per logical table.
func Document(sv *entity.Survey, opts DocumentOptions) (*Result, error) {
	tables, warnings := Flatten(sv)
	res := &Result{MIME: DocumentMIME, Warnings: warnings}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, pageMarginB)
	pdf.SetTitle(TitleReport, true)
	pdf.SetCreator("wmsd-report", true)

	doc := &document{pdf: pdf}
	if err := doc.loadFont(opts); err != nil {
		res.Warnings = append(res.Warnings, Warning{Table: "font", Err: err})
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(doc.family, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	doc.titlePage(sv.Site, now)
	if pdf.Err() {
		return nil, fmt.Errorf("render title page: %w", pdf.Error())
	}

	for _, t := range tables {
		doc.section(t)
		if pdf.Err() {
			res.Warnings = append(res.Warnings, skipped(t.SheetBase(), pdf.Error()))
			pdf.ClearError()
			continue
		}
		res.Sheets = append(res.Sheets, t.SheetBase())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	res.Data = buf.Bytes()
	return res, nil
}

// loadFont registers the configured UTF-8 font, falling back to the core
// font. The returned error wraps ErrRenderingResourceUnavailable.
func (d *document) loadFont(opts DocumentOptions) (err error) {
	d.family = coreFamily
	d.tr = d.pdf.UnicodeTranslatorFromDescriptor("")

	data := opts.FontBytes
	if len(data) == 0 {
		if opts.FontPath == "" {
			return fmt.Errorf("%w: no UTF-8 font configured, using %s", ErrRenderingResourceUnavailable, coreFamily)
		}
		data, err = os.ReadFile(opts.FontPath)
		if err != nil {
			return fmt.Errorf("%w: read font: %v", ErrRenderingResourceUnavailable, err)
		}
	}

	// The font parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			d.pdf.ClearError()
			d.family = coreFamily
			err = fmt.Errorf("%w: parse font: %v", ErrRenderingResourceUnavailable, r)
		}
	}()
	d.pdf.AddUTF8FontFromBytes(fontFamily, "", data)
	// Some parse failures are only printed, so probe the family as well.
	if !d.pdf.Err() {
		d.pdf.SetFont(fontFamily, "", 12)
	}
	if d.pdf.Err() {
		cause := d.pdf.Error()
		d.pdf.ClearError()
		return fmt.Errorf("%w: load font: %v", ErrRenderingResourceUnavailable, cause)
	}
	d.family = fontFamily
	d.tr = func(s string) string { return s }
	return nil
}

func (d *document) font(size float64) {
	d.pdf.SetFont(d.family, "", size)
}

func (d *document) titlePage(site entity.SiteProfile, now time.Time) {
	pdf := d.pdf
	pdf.AddPage()
	pdf.Ln(30)
	d.font(22)
	pdf.CellFormat(0, 14, d.tr(TitleReport), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	d.font(12)
	lines := [][2]string{
		{"사업장명", site.Name},
		{"소재지", site.Address},
		{"업종", site.Industry},
		{"예비조사일", site.PreliminaryDate},
		{"본조사일", site.MainDate},
		{"수행기관", site.Organization},
		{"조사자", site.Investigator},
	}
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	labelW := 40.0
	valueW := 100.0
	x := left + (pageW-left-right-labelW-valueW)/2
	pdf.SetFillColor(217, 225, 242)
	for _, l := range lines {
		pdf.SetX(x)
		pdf.CellFormat(labelW, 9, d.tr(l[0]), "1", 0, "C", true, 0, "")
		pdf.CellFormat(valueW, 9, d.tr(d.fit(l[1], valueW)), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(10)
	d.font(10)
	pdf.CellFormat(0, 8, d.tr("작성일: "+now.Format("2006-01-02")), "", 1, "C", false, 0, "")
}

func (d *document) section(t Table) {
	pdf := d.pdf
	pdf.AddPage()
	d.font(14)
	heading := t.SheetBase()
	if t.Title != "" {
		heading = t.Title
		if t.Task != "" {
			heading += " - " + t.Task
		}
	}
	pdf.CellFormat(0, 10, d.tr(heading), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(t.Headers) == 0 {
		return
	}
	left, _, right, _ := pdf.GetMargins()
	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - left - right) / float64(len(t.Headers))
	fontSize := 9.0
	if len(t.Headers) > 12 {
		fontSize = 7
	}

	header := func() {
		d.font(fontSize)
		pdf.SetFillColor(217, 225, 242)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, rowHeight, d.tr(d.fit(h, colW)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	for _, cells := range t.Rows {
		if pdf.GetY()+rowHeight > pageH-pageMarginB {
			pdf.AddPage()
			header()
		}
		for i := range t.Headers {
			var text string
			if i < len(cells) {
				text = cellText(cells[i])
			}
			pdf.CellFormat(colW, rowHeight, d.tr(d.fit(text, colW)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit shortens s until it fits in a cell of width w.
func (d *document) fit(s string, w float64) string {
	limit := w - 2
	if d.pdf.GetStringWidth(d.tr(s)) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.pdf.GetStringWidth(d.tr(string(r)+"...")) > limit {
		r = r[:len(r)-1]
	}
	return strings.TrimSpace(string(r)) + "..."
}
