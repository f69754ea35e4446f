package models

// MatchResult tracks one participant's standing choice inside a match.
// Choice starts at ChoiceNone and is overwritten by submissions until
// the match is scored.
type MatchResult struct {
	User   ChannelAccount `json:"user"`
	Choice Choice         `json:"choice"`
}

// Match is the aggregate for one session: the fixed participant list,
// their current choices, and the id of the status message that gets
// edited as choices arrive. It is stored as a conversation property
// keyed by SessionID.
type Match struct {
	SessionID string         `json:"sessionId"`
	Results   []*MatchResult `json:"results"`
	MessageID string         `json:"messageId"`

	// Scored flips to true in the same save that records the final
	// choice. It guards the service-record commit so that exactly one
	// submission scores the match, and closes the session to further
	// submissions.
	Scored bool `json:"scored"`
}

// ResultFor returns the participant entry for the given user id, or nil
// when the user was not part of the match at creation.
func (m *Match) ResultFor(userID string) *MatchResult {
	for _, r := range m.Results {
		if r.User.ID == userID {
			return r
		}
	}
	return nil
}

// Complete reports whether every participant has submitted a choice.
func (m *Match) Complete() bool {
	for _, r := range m.Results {
		if r.Choice == ChoiceNone {
			return false
		}
	}
	return len(m.Results) > 0
}
