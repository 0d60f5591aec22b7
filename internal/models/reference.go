package models

import "strings"

// ReferenceStandard holds target measurements for one product size.
type ReferenceStandard struct {
	ManagementID string `json:"managementId"`
	Size         string `json:"size"`
	Fields       Fields `json:"fields"`
}

func (r ReferenceStandard) Key() EntryKey { return NewEntryKey(r.ManagementID, r.Size) }

// ToRow renders the standard in reference table columns.
func (r ReferenceStandard) ToRow() map[string]string {
	row := map[string]string{ColManagementID: r.ManagementID, ColSize: r.Size}
	for _, fv := range r.Fields {
		row[fv.Name] = fv.Value
	}
	return row
}

// ReferenceFromRow reads a standard; every non-key column is a field.
func ReferenceFromRow(header []string, row map[string]string) ReferenceStandard {
	ref := ReferenceStandard{
		ManagementID: strings.TrimSpace(row[ColManagementID]),
		Size:         strings.TrimSpace(row[ColSize]),
	}
	for _, h := range header {
		if h == "" || h == ColManagementID || h == ColSize {
			continue
		}
		ref.Fields = append(ref.Fields, FieldValue{Name: h, Value: row[h]})
	}
	return ref
}
