// Package dataset reads the location hazard table from CSV.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrNotFound is returned when the dataset file does not exist.
	ErrNotFound = errors.New("data file not found")
	// ErrMissingIDColumn is returned when the header lacks the id column.
	ErrMissingIDColumn = errors.New("dataset has no id column")
	// ErrInvalidDataset is returned for malformed CSV, blank or duplicate
	// location ids, and unparsable coordinates.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// naValues are the cell spellings treated as missing.
var naValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// Loader reads a dataset file on every call. Nothing is cached, so edits to
// the file are visible to the next request.
type Loader struct {
	path     string
	idColumn string
}

// NewLoader creates a Loader for the CSV at path, identifying locations by
// idColumn.
func NewLoader(path, idColumn string) *Loader {
	return &Loader{path: path, idColumn: idColumn}
}

// Path returns the dataset file path.
func (l *Loader) Path() string { return l.path }

// Load opens and parses the dataset file.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Dataset{}, fmt.Errorf("%w: %s", ErrNotFound, l.path)
		}
		return domain.Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Read(f, l.idColumn)
}

// CheckReadiness reports whether the dataset file is present.
func (l *Loader) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("dataset path %s is a directory", l.path)
	}
	return nil
}

// utf8BOM prefixes the first header cell of CSVs saved by Excel.
const utf8BOM = "\ufeff"

// Read parses CSV data with a header row. Every cell is read as a string;
// lat and lon are parsed as floats when present. Hazard columns keep the
// header order. A header with no data rows yields a Dataset with no
// locations.
func Read(r io.Reader, idColumn string) (domain.Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: parse csv: %w", ErrInvalidDataset, err)
	}
	if len(records) == 0 {
		return domain.Dataset{}, fmt.Errorf("%w: no header row", ErrInvalidDataset)
	}
	header := records[0]
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	if !slices.Contains(header, idColumn) {
		return domain.Dataset{}, fmt.Errorf("%w: %q", ErrMissingIDColumn, idColumn)
	}

	var hazards []string
	for _, name := range header {
		if domain.IsHazardColumn(name, idColumn) {
			hazards = append(hazards, name)
		}
	}
	if len(records) == 1 {
		return domain.Dataset{HazardColumns: hazards, Locations: []domain.Location{}}, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: %w", ErrInvalidDataset, df.Err)
	}

	ds := domain.Dataset{HazardColumns: hazards, Locations: make([]domain.Location, 0, df.Nrow())}
	seen := make(map[string]int, df.Nrow())

	for i := 0; i < df.Nrow(); i++ {
		row := i + 2 // 1-based, after the header
		id := cell(df, idColumn, i)
		if strings.TrimSpace(id) == "" {
			return domain.Dataset{}, fmt.Errorf("%w: row %d has a blank %s", ErrInvalidDataset, row, idColumn)
		}
		key := domain.NormalizeKey(id)
		if prev, dup := seen[key]; dup {
			return domain.Dataset{}, fmt.Errorf("%w: row %d duplicates location %q from row %d", ErrInvalidDataset, row, id, prev)
		}
		seen[key] = row

		loc := domain.Location{
			ID:      id,
			Place:   cell(df, domain.ColumnPlace, i),
			Hazards: make(map[string]string, len(hazards)),
		}

		var err error
		if loc.Lat, err = coordinate(df, domain.ColumnLat, i); err != nil {
			return domain.Dataset{}, fmt.Errorf("%w: row %d: %w", ErrInvalidDataset, row, err)
		}
		if loc.Lon, err = coordinate(df, domain.ColumnLon, i); err != nil {
			return domain.Dataset{}, fmt.Errorf("%w: row %d: %w", ErrInvalidDataset, row, err)
		}

		for _, h := range hazards {
			if v := cell(df, h, i); v != "" {
				loc.Hazards[h] = v
			}
		}
		ds.Locations = append(ds.Locations, loc)
	}
	return ds, nil
}

// cell returns the string value at (column, row), or "" when the column is
// absent or the cell is missing.
func cell(df dataframe.DataFrame, column string, row int) string {
	if !slices.Contains(df.Names(), column) {
		return ""
	}
	e := df.Col(column).Elem(row)
	if e.IsNA() {
		return ""
	}
	return e.String()
}

func coordinate(df dataframe.DataFrame, column string, row int) (*float64, error) {
	raw := strings.TrimSpace(cell(df, column, row))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", column, raw)
	}
	return &v, nil
}
