package models

import "fmt"

// ServiceRecord is a user's cumulative match record. Counters only ever
// increase; there is no correction or reset operation.
type ServiceRecord struct {
	User   ChannelAccount `json:"user"`
	Wins   int            `json:"wins"`
	Losses int            `json:"losses"`
	Ties   int            `json:"ties"`
}

// Summary renders the record the way the tab and compose-extension
// surfaces display it.
func (r *ServiceRecord) Summary() string {
	return fmt.Sprintf("%s wins: %d losses: %d ties: %d", r.User.Name, r.Wins, r.Losses, r.Ties)
}
