package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
)

// WorkbookMIME xlsx MIME 타입
const WorkbookMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type workbookStyles struct {
	header int
	title  int
}

// Workbook renders one sheet per logical table. A table that fails to
// render is skipped with a warning; the returned error is reserved for a
// workbook that cannot be produced at all.
func Workbook(sv *entity.Survey) (*Result, error) {
	tables, warnings := Flatten(sv)

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	res := &Result{MIME: WorkbookMIME, Warnings: warnings}
	namer := newSheetNamer()
	for _, t := range tables {
		name := namer.unique(t.SheetBase())
		if len(res.Sheets) == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err == nil {
			err = writeSheet(f, name, t, styles)
		}
		if err != nil {
			if len(res.Sheets) > 0 {
				_ = f.DeleteSheet(name)
			}
			res.Warnings = append(res.Warnings, skipped(t.SheetBase(), err))
			continue
		}
		res.Sheets = append(res.Sheets, name)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	res.Data = buf.Bytes()
	return res, nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	return workbookStyles{header: header, title: title}, nil
}

func writeSheet(f *excelize.File, sheet string, t Table, styles workbookStyles) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table has no columns")
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}

	row := 1
	if t.Title != "" {
		if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
			return err
		}
		if len(t.Headers) > 1 {
			if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title); err != nil {
			return err
		}
		row++
	}

	// 머리행
	headerCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, headerCell, &t.Headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, headerCell, fmt.Sprintf("%s%d", lastCol, row), styles.header); err != nil {
		return err
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, cells := range t.Rows {
		if len(cells) > len(t.Headers) {
			return fmt.Errorf("row has %d cells for %d columns", len(cells), len(t.Headers))
		}
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		for i, v := range cells {
			if n := utf8.RuneCountInString(cellText(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	// 열 너비
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, columnWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

// columnWidth sizes a column for its longest cell; Hangul glyphs are about
// two character units wide.
func columnWidth(runes int) float64 {
	w := float64(runes)*1.8 + 2
	switch {
	case w < 8:
		return 8
	case w > 50:
		return 50
	}
	return w
}
