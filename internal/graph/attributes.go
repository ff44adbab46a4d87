package graph

// Reserved keys of a flattened node record
const (
	KeyID   = "id"
	KeyType = "type"
	KeyName = "name"
)

// Flatten returns the known non-zero attributes merged with Extra.
// Known fields win over Extra keys of the same name.
func (a Attributes) Flatten() map[string]any {
	out := make(map[string]any, len(a.Extra)+12)
	for k, v := range a.Extra {
		if k == KeyID || k == KeyType || k == KeyName {
			continue
		}
		out[k] = v
	}
	setString := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	setFloat := func(k string, v float64) {
		if v != 0 {
			out[k] = v
		}
	}
	setInt := func(k string, v int) {
		if v != 0 {
			out[k] = v
		}
	}
	setString("state", a.State)
	setString("city", a.City)
	setString("ntee_code", a.NTEECode)
	setFloat("assets", a.Assets)
	setFloat("revenue", a.Revenue)
	setInt("funder_count", a.FunderCount)
	setFloat("total_funding", a.TotalFunding)
	setFloat("average_grant_size", a.AverageGrantSize)
	setFloat("funding_stability", a.FundingStability)
	setInt("first_grant_year", a.FirstGrantYear)
	setInt("last_grant_year", a.LastGrantYear)
	if len(a.CommonPurposes) > 0 {
		purposes := make([]string, len(a.CommonPurposes))
		copy(purposes, a.CommonPurposes)
		out["common_purposes"] = purposes
	}
	return out
}

// Record returns the node as a flat map: id, type, name and every attribute
func (n *NetworkNode) Record() map[string]any {
	out := n.Attrs.Flatten()
	out[KeyID] = n.ID
	out[KeyType] = string(n.Type)
	out[KeyName] = n.Name
	return out
}
