package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/dialogs"
	"github.com/wfunc/matchbot/logger"
	"github.com/wfunc/matchbot/match"
	"github.com/wfunc/matchbot/models"
)

// emulatorFrame is one message on the emulator socket, in either
// direction. Outbound frames carry the bot's activity and whether it
// is a new message or an edit of an earlier one.
type emulatorFrame struct {
	Event    string           `json:"event"`
	Activity *models.Activity `json:"activity"`
}

// handleEmulator upgrades the request to a websocket chat with the
// bot. The connection gets its own synthetic team conversation with
// two members, so the whole match loop can be exercised locally: the
// client answers prompt cards for either member by setting from.id on
// a card-action frame.
func (s *BotServer) handleEmulator(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	session := newEmulatorSession(conn, s.botAccount)
	logger.Log.Infof("Emulator connected from %s, conversation %s", conn.RemoteAddr(), session.conversation.ID)

	// The emulator pipeline shares the stores but routes all outbound
	// sends back over this socket.
	matches := match.NewManager(session, s.conversations, s.records, logger.Log, s.monitor, s.matchCfg.RetryAttempts, s.matchCfg.RetryBackoff)
	rt := dialogs.BuildRouter(matches)

	for {
		var frame emulatorFrame
		if err := conn.ReadJSON(&frame); err != nil {
			logger.Log.Infof("Emulator disconnected: %v", err)
			return
		}
		if frame.Activity == nil {
			continue
		}
		activity := session.normalizeInbound(frame.Activity)
		if s.monitor != nil {
			s.monitor.IncMessagesReceived()
		}
		s.processActivity(context.Background(), activity, session, matches, rt)
	}
}

// emulatorSession is the loopback connector for one websocket
// connection. Every send or edit becomes a frame on the socket.
type emulatorSession struct {
	conn         *websocket.Conn
	bot          models.ChannelAccount
	user         models.ChannelAccount
	buddy        models.ChannelAccount
	conversation models.ConversationAccount
	writeMutex   sync.Mutex
}

func newEmulatorSession(conn *websocket.Conn, bot models.ChannelAccount) *emulatorSession {
	id := uuid.New().String()[:8]
	return &emulatorSession{
		conn:  conn,
		bot:   bot,
		user:  models.ChannelAccount{ID: "emu-user-" + id, Name: "You"},
		buddy: models.ChannelAccount{ID: "emu-buddy-" + id, Name: "Robo"},
		conversation: models.ConversationAccount{
			ID:   "emu-conv-" + id,
			Name: "Emulator",
		},
	}
}

// normalizeInbound fills the envelope fields a lightweight emulator
// client leaves out.
func (e *emulatorSession) normalizeInbound(activity *models.Activity) *models.Activity {
	if activity.Type == "" {
		activity.Type = models.ActivityTypeMessage
	}
	switch activity.From.ID {
	case "", e.user.ID:
		activity.From = e.user
	case "robo", e.buddy.ID:
		// "robo" is the client-side alias for the synthetic second
		// member.
		activity.From = e.buddy
	}
	activity.Recipient = e.bot
	if activity.Conversation.ID == "" {
		activity.Conversation = e.conversation
	}
	// The synthetic conversation counts as a team so matches can be
	// started from it.
	activity.ChannelData.Team = &models.TeamInfo{ID: e.conversation.ID}
	return activity
}

// --- connector.Connector ---

func (e *emulatorSession) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ChannelAccount, error) {
	return []models.ChannelAccount{e.user, e.buddy}, nil
}

func (e *emulatorSession) SendToConversation(ctx context.Context, conversationID string, activity *models.Activity) (string, error) {
	activity.ID = uuid.New().String()
	activity.Conversation = models.ConversationAccount{ID: conversationID}
	return activity.ID, e.writeFrame("message", activity)
}

func (e *emulatorSession) CreateConversation(ctx context.Context, params connector.ConversationParameters) (string, error) {
	if len(params.Members) != 1 {
		return "", fmt.Errorf("emulator supports single-member conversations, got %d", len(params.Members))
	}
	// Deterministic so repeated prompts reuse the same 1:1 channel.
	return "emu-1on1-" + params.Members[0].ID, nil
}

func (e *emulatorSession) UpdateActivity(ctx context.Context, conversationID, activityID string, activity *models.Activity) (string, error) {
	activity.ID = activityID
	activity.Conversation = models.ConversationAccount{ID: conversationID}
	return activityID, e.writeFrame("update", activity)
}

func (e *emulatorSession) writeFrame(event string, activity *models.Activity) error {
	e.writeMutex.Lock()
	defer e.writeMutex.Unlock()
	return e.conn.WriteJSON(&emulatorFrame{Event: event, Activity: activity})
}
