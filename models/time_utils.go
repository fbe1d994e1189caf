package models

// CandlesForWindow returns how many candles to request from the data
// API so the given number of calendar days is covered at the given
// interval, with a 10% buffer for gaps and partial bars.
func CandlesForWindow(interval string, days int) int {
	candlesPerDay := 0

	switch interval {
	case "1min":
		candlesPerDay = 24 * 60
	case "5min":
		candlesPerDay = 24 * 12
	case "15min":
		candlesPerDay = 24 * 4
	case "30min":
		candlesPerDay = 24 * 2
	case "1h":
		candlesPerDay = 24
	case "2h":
		candlesPerDay = 12
	case "4h":
		candlesPerDay = 6
	case "1day":
		candlesPerDay = 1
	default:
		candlesPerDay = 24
	}

	if days < 1 {
		days = 1
	}

	return int(float64(candlesPerDay) * float64(days) * 1.1)
}
