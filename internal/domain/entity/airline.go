package entity

// Airline is a carrier known to the reference tables.
// CodeshareOperator is the subsidiary that operates flights sold under Code.
type Airline struct {
	Code              string
	Name              string
	CodeshareOperator string
}
