package enum

// LeadSource identifies which origin schema produced a contact. Current leads
// carry an opaque id plus a human-facing lead number; legacy leads carry a
// bare numeric id that doubles as their lead number.
type LeadSource string

const (
	LeadSourceCurrent LeadSource = "current"
	LeadSourceLegacy  LeadSource = "legacy"
)

func (t LeadSource) String() string {
	return string(t)
}
