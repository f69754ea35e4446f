package models

import "encoding/json"

// Activity types delivered by the chat transport.
const (
	ActivityTypeMessage            = "message"
	ActivityTypeInvoke             = "invoke"
	ActivityTypeConversationUpdate = "conversationUpdate"
)

// ChannelAccount identifies a user or the bot on the chat service. The
// object id is the durable directory identity, present when the channel
// exposes one.
type ChannelAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ObjectID string `json:"objectId,omitempty"`
}

// ConversationAccount identifies a conversation (group channel or 1:1).
type ConversationAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TeamInfo is present in channel data when the conversation belongs to
// a team.
type TeamInfo struct {
	ID string `json:"id"`
}

// TenantInfo carries the tenant the conversation lives in.
type TenantInfo struct {
	ID string `json:"id"`
}

// ChannelData is channel-specific metadata on an activity. Team is nil
// outside a group context.
type ChannelData struct {
	Tenant *TenantInfo `json:"tenant,omitempty"`
	Team   *TeamInfo   `json:"team,omitempty"`
}

// Mention is an @-mention entity attached to a message activity. Text
// holds the literal substring of the message that rendered the mention.
type Mention struct {
	Mentioned ChannelAccount `json:"mentioned"`
	Text      string         `json:"text,omitempty"`
}

// Attachment is an opaque card attached to an outbound message. The
// transport renders it; the bot only builds the payload.
type Attachment struct {
	ContentType string      `json:"contentType"`
	Content     interface{} `json:"content"`
}

// Activity is the inbound/outbound message envelope exchanged with the
// chat transport. Text messages carry Text; card submissions carry an
// empty Text and a populated Value.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Text         string              `json:"text,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	ChannelData  ChannelData         `json:"channelData,omitempty"`
	Mentions     []Mention           `json:"entities,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
	Value        json.RawMessage     `json:"value,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
}

// IsCardAction reports whether a message activity is a card submission
// rather than ordinary text.
func (a *Activity) IsCardAction() bool {
	return a.Type == ActivityTypeMessage && a.Text == "" && len(a.Value) > 0
}

// InTeam reports whether the activity originated inside a team channel.
func (a *Activity) InTeam() bool {
	return a.ChannelData.Team != nil
}

// CardActionPayload is the structured value a prompt card submits back
// to the bot. SessionID and ConversationID route the submission to the
// match it belongs to.
type CardActionPayload struct {
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`
	Choice         string `json:"choice"`
}
