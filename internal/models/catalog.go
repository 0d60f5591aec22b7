package models

import "strings"

// CatalogEntry is one pending unit awaiting measurement.
type CatalogEntry struct {
	ManagementID string `json:"managementId"`
	Brand        string `json:"brand"`
	Genre        string `json:"genre"`
	ProductName  string `json:"productName"`
	Color        string `json:"color"`
	Size         string `json:"size"`
}

// EntryKey identifies a catalog entry.
type EntryKey struct {
	ManagementID string `json:"managementId"`
	Size         string `json:"size"`
}

// NewEntryKey trims both parts so keys from forms and tables compare equal.
func NewEntryKey(managementID, size string) EntryKey {
	return EntryKey{ManagementID: strings.TrimSpace(managementID), Size: strings.TrimSpace(size)}
}

func (e CatalogEntry) Key() EntryKey { return NewEntryKey(e.ManagementID, e.Size) }

// ToRow renders the entry in catalog table columns.
func (e CatalogEntry) ToRow() map[string]string {
	return map[string]string{
		ColManagementID: e.ManagementID,
		ColBrand:        e.Brand,
		ColGenre:        e.Genre,
		ColProductName:  e.ProductName,
		ColColor:        e.Color,
		ColSize:         e.Size,
	}
}

// CatalogEntryFromRow reads an entry from a catalog table row.
func CatalogEntryFromRow(row map[string]string) CatalogEntry {
	return CatalogEntry{
		ManagementID: strings.TrimSpace(row[ColManagementID]),
		Brand:        strings.TrimSpace(row[ColBrand]),
		Genre:        strings.TrimSpace(row[ColGenre]),
		ProductName:  row[ColProductName],
		Color:        row[ColColor],
		Size:         strings.TrimSpace(row[ColSize]),
	}
}

// ImportRow is one product listing before size expansion.
type ImportRow struct {
	ManagementID string `json:"managementId"`
	Brand        string `json:"brand"`
	Genre        string `json:"genre"`
	ProductName  string `json:"productName"`
	Color        string `json:"color"`
	Sizes        string `json:"sizes"`
}
