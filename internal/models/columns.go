package models

// Column names shared by the catalog, measurement and reference tables.
const (
	ColDate         = "日付"
	ColManagementID = "管理番号"
	ColBrand        = "ブランド"
	ColGenre        = "ジャンル"
	ColProductName  = "商品名"
	ColColor        = "カラー"
	ColSize         = "サイズ"
	ColRemark       = "備考"

	// Template table
	ColTemplateFields = "採寸項目"

	// Users table
	ColUsername     = "username"
	ColPasswordHash = "password_hash"
	ColRole         = "role"
)

// DateLayout is the format measurement dates are written in.
const DateLayout = "2006-01-02"

// CatalogHeader is the column layout of the catalog table.
var CatalogHeader = []string{ColManagementID, ColBrand, ColGenre, ColProductName, ColColor, ColSize}

// IdentityHeader lists the fixed measurement columns in table order.
var IdentityHeader = []string{ColDate, ColManagementID, ColBrand, ColGenre, ColProductName, ColColor, ColSize, ColRemark}

// TemplateHeader is the column layout of the template table.
var TemplateHeader = []string{ColGenre, ColTemplateFields}

// ReferenceHeader holds the key columns of the reference table; standard
// values follow as extra columns.
var ReferenceHeader = []string{ColManagementID, ColSize}

// UserHeader is the column layout of the users table.
var UserHeader = []string{ColUsername, ColPasswordHash, ColRole}

var identitySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(IdentityHeader))
	for _, c := range IdentityHeader {
		m[c] = struct{}{}
	}
	return m
}()

// IsIdentityColumn reports whether col is one of the fixed measurement columns.
func IsIdentityColumn(col string) bool {
	_, ok := identitySet[col]
	return ok
}
