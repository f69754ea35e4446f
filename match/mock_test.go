package match

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

// MockConnector is a test double for the connector.Connector interface.
type MockConnector struct {
	Members    []models.ChannelAccount
	MembersErr error

	// conversation id -> error forced on sends into it
	SendErrors map[string]error

	mutex   sync.Mutex
	nextID  int
	Sent    []SentActivity
	Updated []SentActivity
}

type SentActivity struct {
	ConversationID string
	ActivityID     string
	Activity       *models.Activity
}

func (m *MockConnector) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ChannelAccount, error) {
	if m.MembersErr != nil {
		return nil, m.MembersErr
	}
	return m.Members, nil
}

func (m *MockConnector) SendToConversation(ctx context.Context, conversationID string, activity *models.Activity) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.SendErrors[conversationID]; err != nil {
		return "", err
	}
	m.nextID++
	id := fmt.Sprintf("msg-%d", m.nextID)
	m.Sent = append(m.Sent, SentActivity{ConversationID: conversationID, ActivityID: id, Activity: activity})
	return id, nil
}

func (m *MockConnector) CreateConversation(ctx context.Context, params connector.ConversationParameters) (string, error) {
	return "1on1-" + params.Members[0].ID, nil
}

func (m *MockConnector) UpdateActivity(ctx context.Context, conversationID, activityID string, activity *models.Activity) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.SendErrors[conversationID]; err != nil {
		return "", err
	}
	m.Updated = append(m.Updated, SentActivity{ConversationID: conversationID, ActivityID: activityID, Activity: activity})
	return activityID, nil
}

// SentTo returns the activities sent into one conversation.
func (m *MockConnector) SentTo(conversationID string) []SentActivity {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var out []SentActivity
	for _, s := range m.Sent {
		if s.ConversationID == conversationID {
			out = append(out, s)
		}
	}
	return out
}

func zapNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func newTestManager(conn connector.Connector, conversations persistence.ConversationStore, records persistence.RecordStore) *Manager {
	return NewManager(conn, conversations, records, zapNop(), nil, 3, 0)
}

func teamActivity(from string) *models.Activity {
	return &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         models.ChannelAccount{ID: from, Name: from},
		Recipient:    models.ChannelAccount{ID: "bot", Name: "matchbot"},
		Conversation: models.ConversationAccount{ID: "team-conv"},
		ChannelData: models.ChannelData{
			Tenant: &models.TenantInfo{ID: "tenant"},
			Team:   &models.TeamInfo{ID: "team"},
		},
	}
}
