package domain

// PageSpec selects one page of a scan. Page is zero-based.
type PageSpec struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Offset returns the row offset for the page.
func (s PageSpec) Offset() int {
	if s.Page < 0 {
		return 0
	}
	return s.Page * s.Size
}

// UserPage is one page of user records plus scan metadata.
type UserPage struct {
	Items []UserView `json:"items"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int64      `json:"total"`
}
