// Package model defines the records shared by the harvester, the loader and
// the read API.
package model

// RawListing is one branch as harvested from the listing endpoint, after
// coordinate reconciliation. It is written to the record set as-is.
type RawListing struct {
	RegionAlias string
	RegionName  string
	Name        string
	Type        string
	Address     string
	Phone       string
	Latitude    float64
	Longitude   float64
	Flags       Flags
}

// Region is a row of the regions dimension table.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServiceType is a row of the service_types dimension table.
type ServiceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Branch is a row of the bluehands fact table, joined with its dimension
// names for reads. Nullable columns are pointers.
type Branch struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	RegionID  int64    `json:"region_id"`
	Region    string   `json:"region,omitempty"`
	TypeID    int64    `json:"type_id"`
	Type      string   `json:"type,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Flags     Flags    `json:"-"`
}

// Services returns the labels of the branch's service flags.
func (b *Branch) Services() []string {
	return b.Flags.Labels()
}

// HasLocation reports whether both coordinates are present.
func (b *Branch) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}
