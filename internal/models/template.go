package models

// TemplateRule declares the measurement fields of a genre. RawFields is the
// free-text list as stored, delimited by "," or "、".
type TemplateRule struct {
	Genre     string `json:"genre"`
	RawFields string `json:"rawFields"`
}
