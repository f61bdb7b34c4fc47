package entities

// SelectionMethod records which path produced a pick
type SelectionMethod string

const (
	// SelectionMethodAI is an accepted recommendation from the reasoning service
	SelectionMethodAI SelectionMethod = "ai"
	// SelectionMethodCorrected is a deterministic pick that replaced an over-budget recommendation
	SelectionMethodCorrected SelectionMethod = "ai_corrected"
	// SelectionMethodFallback is the deterministic cheapest-in-policy rule
	SelectionMethodFallback SelectionMethod = "fallback"
)

// Selection is the outcome of choosing one listing from a candidate set
type Selection struct {
	Listing *Listing        `json:"listing"`
	Reason  string          `json:"reason"`
	Method  SelectionMethod `json:"method"`
}

// Found reports whether any listing was selected
func (s Selection) Found() bool {
	return s.Listing != nil
}
