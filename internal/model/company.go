package model

// Company is the reference record used to populate the company selector on
// the schedule form.  The console only needs the identity, display name and
// transport type; the full document is rendered through Entity.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CompanyFromEntity projects a listed company entity onto Company.
func CompanyFromEntity(e Entity) Company {
	return Company{ID: e.ID, Name: e.String("name"), Type: e.String("type")}
}
