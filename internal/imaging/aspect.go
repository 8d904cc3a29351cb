package imaging

import "fmt"

// Canonical ratios checked in priority order; the first one within tolerance
// wins. The wording is part of the contract with the editing service, which
// receives these descriptions inside its prompt.
var canonicalRatios = []struct {
	value float64
	label string
}{
	{16.0 / 9.0, "16:9 cinematic widescreen"},
	{4.0 / 3.0, "4:3 standard"},
	{1.0, "1:1 square"},
	{4.0 / 5.0, "4:5 portrait"},
	{9.0 / 16.0, "9:16 vertical"},
}

const ratioTolerance = 0.01

// AspectDescription maps a width/height pair to a human-readable ratio
// descriptor. A zero or missing dimension yields the empty string, not an
// error, because the result only feeds optional prompt text.
func AspectDescription(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	ratio := float64(width) / float64(height)
	for _, c := range canonicalRatios {
		if diff := ratio - c.value; diff < ratioTolerance && diff > -ratioTolerance {
			return c.label
		}
	}
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
