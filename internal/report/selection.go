package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const listSeparator = "|"

// PipeList is a list stored in one cell, joined with "|".
type PipeList []string

func (l PipeList) MarshalCSV() (string, error) {
	return strings.Join(l, listSeparator), nil
}

func (l *PipeList) UnmarshalCSV(s string) error {
	if s == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(s, listSeparator)
	return nil
}

// IndexList is a list of record positions stored in one cell, joined with "|".
type IndexList []int

func (l IndexList) MarshalCSV() (string, error) {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, listSeparator), nil
}

func (l *IndexList) UnmarshalCSV(s string) error {
	*l = nil
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, listSeparator) {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", part, err)
		}
		*l = append(*l, v)
	}
	return nil
}

// SelectionRow is one date of the selection workbook.
type SelectionRow struct {
	Date     string    `csv:"date"`
	KMLFile  string    `csv:"KML filename"`
	Required int       `csv:"nb_required_polygons"`
	Total    int       `csv:"nb_total_polygons"`
	Items    IndexList `csv:"coverage_item_list"`
	// Links holds the download link of every record of the date, by position.
	Links PipeList `csv:"coverage_url_list"`
}

// URLs returns every link of the date, or only the links of the covering records.
func (r SelectionRow) URLs(allPolygons bool) []string {
	if allPolygons {
		return append([]string(nil), r.Links...)
	}
	urls := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		if item >= 0 && item < len(r.Links) {
			urls = append(urls, r.Links[item])
		}
	}
	return urls
}

// Flatten builds one row per date.
func Flatten(reports []DateReport) []SelectionRow {
	rows := make([]SelectionRow, 0, len(reports))
	for _, rep := range reports {
		links := make(PipeList, len(rep.Records))
		for i, rec := range rep.Records {
			links[i] = rec.Link.Href
		}
		rows = append(rows, SelectionRow{
			Date:     rep.Date,
			KMLFile:  rep.Label,
			Required: rep.Resolution.Required(),
			Total:    len(rep.Records),
			Items:    IndexList(rep.Resolution.Indices),
			Links:    links,
		})
	}
	return rows
}

// SelectionFileName names the workbook of a search window.
func SelectionFileName(start, end string) string {
	return fmt.Sprintf("selection_from_%s_to_%s.xlsx", start, end)
}

// WriteSelection writes rows to a one sheet workbook with a header row.
func WriteSelection(path string, rows []SelectionRow) error {
	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{file: f, sheet: f.GetSheetName(0)}
	if err := gocsv.MarshalCSV(&rows, w); err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}
	if err := w.Error(); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// ReadSelection reads the first sheet of a workbook written by WriteSelection.
func ReadSelection(path string) ([]SelectionRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}

	var rows []SelectionRow
	if err := gocsv.UnmarshalCSV(&sheetReader{rows: sheetRows}, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection %s: %w", path, err)
	}
	return rows, nil
}

// sheetWriter lets gocsv write rows into an excelize sheet. Integer cells are stored as numbers.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) Write(record []string) error {
	if w.err != nil {
		return w.err
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return err
	}
	values := make([]interface{}, len(record))
	for i, v := range record {
		if n, err := strconv.Atoi(v); err == nil && w.row > 1 {
			values[i] = n
			continue
		}
		values[i] = v
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("failed to write row %d: %w", w.row, err)
	}
	return w.err
}

func (w *sheetWriter) Flush() {}

func (w *sheetWriter) Error() error { return w.err }

type sheetReader struct {
	rows [][]string
	next int
}

func (r *sheetReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *sheetReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.next:]
	r.next = len(r.rows)
	return rest, nil
}
