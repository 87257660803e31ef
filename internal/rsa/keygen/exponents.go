package keygen

// Exponent describes a conventional public exponent choice.
type Exponent struct {
	Value       int64
	Name        string
	Description string
}

// CommonExponents returns the public exponents offered as presets, smallest
// first.
func CommonExponents() []Exponent {
	return []Exponent{
		{Value: 3, Name: "e = 3", Description: "Smallest odd prime"},
		{Value: 5, Name: "e = 5", Description: "Small prime"},
		{Value: 17, Name: "e = 17", Description: "Fermat prime F2"},
		{Value: 257, Name: "e = 257", Description: "Fermat prime F3"},
		{Value: 65537, Name: "e = 65537", Description: "Fermat prime F4 (most common)"},
	}
}
