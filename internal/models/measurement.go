package models

import (
	"strings"
	"time"
)

// FieldValue is one measured field. Values are decimal strings in
// centimeters, or blank.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields is an ordered set of measurement values keyed by field name.
type Fields []FieldValue

// Get returns the value for name and whether the field is present.
func (f Fields) Get(name string) (string, bool) {
	for _, fv := range f {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return "", false
}

// Set replaces the value of name or appends the field.
func (f *Fields) Set(name, value string) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, FieldValue{Name: name, Value: value})
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	out := make([]string, len(f))
	for i, fv := range f {
		out[i] = fv.Name
	}
	return out
}

// AllBlank reports whether every value is empty after trimming.
func (f Fields) AllBlank() bool {
	for _, fv := range f {
		if strings.TrimSpace(fv.Value) != "" {
			return false
		}
	}
	return true
}

// Identity holds the fixed columns of a measurement record.
type Identity struct {
	Date         string `json:"date"`
	ManagementID string `json:"managementId"`
	Brand        string `json:"brand"`
	Genre        string `json:"genre"`
	ProductName  string `json:"productName"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Remark       string `json:"remark"`
}

// IdentityFromEntry copies the catalog columns of e, dated on day.
func IdentityFromEntry(e CatalogEntry, day time.Time) Identity {
	return Identity{
		Date:         day.Format(DateLayout),
		ManagementID: e.ManagementID,
		Brand:        e.Brand,
		Genre:        e.Genre,
		ProductName:  e.ProductName,
		Color:        e.Color,
		Size:         e.Size,
	}
}

// MeasurementRecord is one completed measurement event.
type MeasurementRecord struct {
	Identity
	Fields Fields `json:"fields"`
}

// Column returns the value of any identity or measurement column.
func (r MeasurementRecord) Column(col string) string {
	switch col {
	case ColDate:
		return r.Date
	case ColManagementID:
		return r.ManagementID
	case ColBrand:
		return r.Brand
	case ColGenre:
		return r.Genre
	case ColProductName:
		return r.ProductName
	case ColColor:
		return r.Color
	case ColSize:
		return r.Size
	case ColRemark:
		return r.Remark
	}
	v, _ := r.Fields.Get(col)
	return v
}

// Columns returns identity columns followed by the record's field names.
func (r MeasurementRecord) Columns() []string {
	return append(append([]string(nil), IdentityHeader...), r.Fields.Names()...)
}

// ToRow renders the record in measurement table columns.
func (r MeasurementRecord) ToRow() map[string]string {
	row := make(map[string]string, len(IdentityHeader)+len(r.Fields))
	for _, c := range IdentityHeader {
		row[c] = r.Column(c)
	}
	for _, fv := range r.Fields {
		row[fv.Name] = fv.Value
	}
	return row
}

// MeasurementFromRow reads a record from a table row. Non-identity columns
// become fields in header order; columns absent from row are skipped.
func MeasurementFromRow(header []string, row map[string]string) MeasurementRecord {
	rec := MeasurementRecord{Identity: Identity{
		Date:         strings.TrimSpace(row[ColDate]),
		ManagementID: strings.TrimSpace(row[ColManagementID]),
		Brand:        row[ColBrand],
		Genre:        strings.TrimSpace(row[ColGenre]),
		ProductName:  row[ColProductName],
		Color:        row[ColColor],
		Size:         strings.TrimSpace(row[ColSize]),
		Remark:       row[ColRemark],
	}}
	for _, h := range header {
		if h == "" || IsIdentityColumn(h) {
			continue
		}
		if v, ok := row[h]; ok {
			rec.Fields = append(rec.Fields, FieldValue{Name: h, Value: v})
		}
	}
	return rec
}
