// Package sheet writes shift records into an .xlsx timesheet template.
package sheet

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/okian/shiftsheet/internal/domain/shift"
	"github.com/okian/shiftsheet/pkg/logger"
)

const (
	// builtinDateFormat is the locale short date (m/d/yyyy) number format.
	builtinDateFormat = 14

	fileSuffix = " Timesheet.xlsx"
)

// startLayouts are tried in order when reading a record's start value.
var startLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// FileName returns the output name for a timesheet generated at now,
// e.g. "July Timesheet.xlsx".
func FileName(now time.Time) string {
	return now.Month().String() + fileSuffix
}

// StartDate returns the calendar date of a record's start value, read in the
// value's own offset.
func StartDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range startLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithFs sets the filesystem used for the template and output.
func WithFs(fs afero.Fs) Option {
	return func(w *Writer) {
		if fs != nil {
			w.fs = fs
		}
	}
}

// WithTemplate sets the template workbook path.
func WithTemplate(path string) Option {
	return func(w *Writer) {
		if path != "" {
			w.templatePath = path
		}
	}
}

// WithOutputDir sets the directory generated timesheets are saved to.
func WithOutputDir(dir string) Option {
	return func(w *Writer) {
		if dir != "" {
			w.outputDir = dir
		}
	}
}

// WithCatalog sets the drop-down choices for the position column.
func WithCatalog(positions []string) Option {
	return func(w *Writer) {
		if len(positions) > 0 {
			w.catalog = append([]string(nil), positions...)
		}
	}
}

// WithClock overrides the time source used to name output files.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the writer logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// Writer fills a copy of a template workbook with shift records.
type Writer struct {
	fs           afero.Fs
	templatePath string
	outputDir    string
	catalog      []string
	now          func() time.Time
	logger       logger.Logger
}

// New constructs a Writer. Defaults: OS filesystem, "Timesheet.xlsx" template,
// current directory output and the default position catalog.
func New(opts ...Option) *Writer {
	w := &Writer{
		fs:           afero.NewOsFs(),
		templatePath: "Timesheet.xlsx",
		outputDir:    ".",
		catalog:      shift.DefaultCatalog(),
		now:          time.Now,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Catalog returns a copy of the drop-down choices.
func (w *Writer) Catalog() []string {
	return append([]string(nil), w.catalog...)
}

// Write copies the template, fills rows from layout.StartRow in record order
// and saves it as FileName(now) in the output directory. It returns the
// output path. Any failure aborts the write; nothing is skipped.
func (w *Writer) Write(ctx context.Context, records []shift.Record, layout Layout) (string, error) {
	return w.WriteRun(ctx, "", records, layout, w.now())
}

// WriteRun is Write into the runDir subdirectory of the output directory,
// with the generation time supplied by the caller. Runs using distinct
// runDirs never share an output file.
func (w *Writer) WriteRun(ctx context.Context, runDir string, records []shift.Record, layout Layout, now time.Time) (string, error) {
	const op = "sheet.write"

	if err := layout.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if runDir != "" && (runDir != filepath.Base(runDir) || runDir == "." || runDir == "..") {
		return "", fmt.Errorf("%s: %w: run directory %q must be a single path element", op, ErrSave, runDir)
	}

	dir := filepath.Join(w.outputDir, runDir)
	outPath := filepath.Join(dir, FileName(now))
	if filepath.Clean(outPath) == filepath.Clean(w.templatePath) {
		return "", fmt.Errorf("%s: %w: output %s would overwrite the template", op, ErrSave, outPath)
	}

	f, err := w.openTemplate()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return "", fmt.Errorf("%s: %w: %s has no worksheet", op, ErrTemplate, w.templatePath)
	}

	fill := &filler{file: f, sheet: sheetName, layout: layout, dateStyles: make(map[int]int)}
	cells := make([]string, 0, len(records))
	for i, rec := range records {
		cell, err := fill.row(i, rec)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		cells = append(cells, cell)
	}

	if len(cells) > 0 {
		if err := w.addPositionValidation(f, sheetName, cells); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := w.save(f, dir, outPath); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	w.logger.Info(ctx, "timesheet saved",
		logger.String("file", outPath),
		logger.String("sheet", sheetName),
		logger.Int("rows", len(records)),
	)
	return outPath, nil
}

func (w *Writer) openTemplate() (*excelize.File, error) {
	src, err := w.fs.Open(w.templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	defer func() { _ = src.Close() }()

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTemplate, w.templatePath, err)
	}
	return f, nil
}

// addPositionValidation registers one list validator bound to exactly the
// written position cells.
func (w *Writer) addPositionValidation(f *excelize.File, sheetName string, cells []string) error {
	dv := excelize.NewDataValidation(true)
	dv.SetSqref(strings.Join(cells, " "))
	if err := dv.SetDropList(w.catalog); err != nil {
		return fmt.Errorf("%w: position list: %v", ErrSave, err)
	}
	if err := f.AddDataValidation(sheetName, dv); err != nil {
		return fmt.Errorf("%w: add validation: %v", ErrSave, err)
	}
	return nil
}

func (w *Writer) save(f *excelize.File, dir, outPath string) error {
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	out, err := w.fs.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	if err := f.Write(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: write %s: %v", ErrSave, outPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrSave, outPath, err)
	}
	return nil
}

// filler writes individual rows into one sheet.
type filler struct {
	file   *excelize.File
	sheet  string
	layout Layout
	// dateStyles caches template style id -> same style with a date format.
	dateStyles map[int]int
}

// row writes record i and returns the position cell name.
func (fl *filler) row(i int, rec shift.Record) (string, error) {
	row := fl.layout.StartRow + i

	date, err := StartDate(rec.Start)
	if err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "start", Value: rec.Start, Err: err}
	}

	dateCell, err := excelize.CoordinatesToCellName(fl.layout.DateCol, row)
	if err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "date_col", Err: err}
	}
	if err := fl.setDate(dateCell, date); err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "start", Value: rec.Start, Err: err}
	}

	if err := fl.set(fl.layout.HoursCol, row, rec.Hours); err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "hours", Value: fmt.Sprint(rec.Hours), Err: err}
	}
	if err := fl.set(fl.layout.LocationCol, row, rec.Location); err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "location", Value: rec.Location, Err: err}
	}

	positionCell, err := excelize.CoordinatesToCellName(fl.layout.PositionCol, row)
	if err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "position_col", Err: err}
	}
	if err := fl.file.SetCellValue(fl.sheet, positionCell, rec.Label()); err != nil {
		return "", &RecordError{Index: i, Row: row, Field: "position", Value: rec.Label(), Err: err}
	}
	return positionCell, nil
}

func (fl *filler) set(col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return fl.file.SetCellValue(fl.sheet, cell, value)
}

// setDate writes a date and makes sure the cell displays it as one, keeping
// any borders, fonts or date format the template already put on the cell.
// SetCellValue assigns its own date format to time values, so the style is
// applied after the value.
func (fl *filler) setDate(cell string, date time.Time) error {
	base, err := fl.file.GetCellStyle(fl.sheet, cell)
	if err != nil {
		return err
	}
	styleID, ok := fl.dateStyles[base]
	if !ok {
		style, err := fl.file.GetStyle(base)
		if err != nil {
			return err
		}
		styleID = base
		if style.NumFmt == 0 && style.CustomNumFmt == nil {
			style.NumFmt = builtinDateFormat
			if styleID, err = fl.file.NewStyle(style); err != nil {
				return err
			}
		}
		fl.dateStyles[base] = styleID
	}
	if err := fl.file.SetCellValue(fl.sheet, cell, date); err != nil {
		return err
	}
	return fl.file.SetCellStyle(fl.sheet, cell, cell, styleID)
}
