package db

// Organization represents a row in the organizations table
type Organization struct {
	EIN      string  `json:"ein"`
	Name     string  `json:"name"`
	OrgType  string  `json:"org_type"` // "foundation", "grantee" or empty
	State    string  `json:"state"`
	City     string  `json:"city"`
	NTEECode string  `json:"ntee_code"`
	Assets   float64 `json:"assets"`
	Revenue  float64 `json:"revenue"`
}

// Grant represents a row in the grants table
type Grant struct {
	ID           int64   `json:"id"`
	FoundationID string  `json:"foundation_ein"`
	GranteeID    string  `json:"grantee_ein"`
	Amount       float64 `json:"amount"`
	Year         int     `json:"tax_year"`
	Purpose      string  `json:"purpose"`
}
