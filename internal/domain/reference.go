package domain

// Requester kind codes. The code column fixes the workflow branch regardless
// of how the human-readable label is edited.
const (
	KindIndividual   = "individual"
	KindOrganization = "organization"
)

// Option is one entry of a reference enumeration (requester kind, category,
// subcategory, contact channel, convenient-time slot).
type Option struct {
	ID    int64
	Label string
	// Code is set only for requester kinds.
	Code string
}
