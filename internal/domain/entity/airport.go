package entity

// Airport is an airport served by the booking portal.
// Aliases holds the variant names the portal returns for it.
type Airport struct {
	Code        string
	DisplayName string
	Aliases     []string
}
