package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one named value of an exported record. A nil Value is missing.
type Field struct {
	Name  string
	Value any
}

// Record is an exported row whose fields keep the view's column order.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the named field formatted for tabular output.
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	return FormatValue(v)
}

// MarshalJSON encodes the record as a JSON object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// View is a projection of a scored table onto the export columns.
type View struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (v View) Len() int { return len(v.Records) }

// Project builds the export view of t for the given hazard filter; see
// SelectColumns for the column rules. Row order is preserved.
func Project(t ScoredTable, hazard string) View {
	cols := SelectColumns(t.HazardColumns, hazard)
	v := View{Columns: cols, Records: make([]Record, 0, len(t.Rows))}
	for _, row := range t.Rows {
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[i] = Field{Name: c, Value: cellValue(row, c)}
		}
		v.Records = append(v.Records, rec)
	}
	return v
}

func cellValue(row ScoredLocation, column string) any {
	switch column {
	case ColumnID:
		return row.ID
	case ColumnPlace:
		return row.Place
	case ColumnLat:
		return floatOrNil(row.Lat)
	case ColumnLon:
		return floatOrNil(row.Lon)
	case ColumnCluster:
		return row.Cluster
	case ColumnPredictedRisk:
		return string(row.PredictedRisk)
	case ColumnRecommendation:
		return row.Recommendation
	default:
		if v := row.Hazards[column]; v != "" {
			return v
		}
		return nil
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// FormatValue renders a record value as text; missing values are "".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
