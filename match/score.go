package match

import (
	"github.com/wfunc/matchbot/models"
)

// Stats is one participant's outcome of a completed match.
type Stats struct {
	Wins   int
	Losses int
	Ties   int
}

// ComputeStats compares every participant's choice against every other
// participant's and returns per-user win/loss/tie counts keyed by user
// id. For a completed match of N participants each user's counts sum
// to N-1.
func ComputeStats(results []*models.MatchResult) map[string]Stats {
	stats := make(map[string]Stats, len(results))
	for _, r := range results {
		var s Stats
		for _, other := range results {
			if other.User.ID == r.User.ID {
				continue
			}
			switch {
			case r.Choice.Beats(other.Choice):
				s.Wins++
			case other.Choice.Beats(r.Choice):
				s.Losses++
			default:
				s.Ties++
			}
		}
		stats[r.User.ID] = s
	}
	return stats
}
