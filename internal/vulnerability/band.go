package vulnerability

// Band is the map colour class of a 0-100 value.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandOrange Band = "orange"
	BandRed    Band = "red"
)

func BandFor(score float64) Band {
	switch {
	case score >= 75:
		return BandRed
	case score >= 50:
		return BandOrange
	case score >= 25:
		return BandYellow
	default:
		return BandGreen
	}
}
