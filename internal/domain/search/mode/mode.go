package mode

// Mode is the result ordering requested by the caller.
type Mode string

// Sort mode constants.
const (
	// Relevance orders by text match, then boost score.
	Relevance Mode = "relevance"
	// Distance orders by proximity to the geo center; needs a center.
	Distance Mode = "distance"
	Newest   Mode = "newest"
	Name     Mode = "name"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Relevance || m == Distance || m == Newest || m == Name
}
