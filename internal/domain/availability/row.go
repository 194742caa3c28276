// internal/domain/availability/row.go
package availability

// UnknownFacility is reported when a result row has no facility label.
const UnknownFacility = "N/A"

// ReserveLabel is the exact action label text that marks a unit as bookable.
const ReserveLabel = "Reserve"

// Row is one facility/unit line of a search result page.
type Row struct {
	Facility  string
	UnitType  string
	Available bool
}

// IsReserveLabel reports whether an action label means the unit can be booked.
// The comparison is exact and case-sensitive.
func IsReserveLabel(label string) bool {
	return label == ReserveLabel
}
