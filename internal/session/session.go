package session

import (
	"time"

	"volintel/internal/config"
	"volintel/models"
)

// Classifier maps UTC timestamps to trading sessions. Stateless; the
// bands come in at construction so tests can substitute their own.
type Classifier struct {
	bands    []config.SessionBand
	overlaps []config.OverlapWindow
}

func New(bands []config.SessionBand, overlaps []config.OverlapWindow) *Classifier {
	return &Classifier{bands: bands, overlaps: overlaps}
}

// Classify returns the session owning the timestamp's UTC hour plus
// overlap metadata. Bands are half-open, so an hour exactly on a
// boundary belongs to the later session. Total over all timestamps.
func (c *Classifier) Classify(now time.Time) models.SessionInfo {
	hour := now.UTC().Hour()

	info := models.SessionInfo{Session: models.SessionOff}
	for _, b := range c.bands {
		if hour >= b.StartHour && hour < b.EndHour {
			info.Session = b.Session
			break
		}
	}
	for _, o := range c.overlaps {
		if hour >= o.StartHour && hour < o.EndHour {
			info.Overlap = o.Name
			break
		}
	}
	return info
}

// Multiplier returns the session's volatility multiplier, 1.0 for a
// session missing from the bands.
func (c *Classifier) Multiplier(s models.Session) float64 {
	for _, b := range c.bands {
		if b.Session == s {
			return b.Multiplier
		}
	}
	return 1.0
}

// Reason returns the driver text for the session's usual behavior.
func (c *Classifier) Reason(s models.Session) string {
	for _, b := range c.bands {
		if b.Session == s {
			return b.Reason
		}
	}
	return ""
}
