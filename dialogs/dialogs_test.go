package dialogs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/wfunc/matchbot/bot"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/match"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

// MockConnector is a test double for the connector.Connector interface.
type MockConnector struct {
	Members []models.ChannelAccount

	mutex  sync.Mutex
	nextID int
	Sent   []SentActivity
}

type SentActivity struct {
	ConversationID string
	Activity       *models.Activity
}

func (m *MockConnector) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ChannelAccount, error) {
	return m.Members, nil
}

func (m *MockConnector) SendToConversation(ctx context.Context, conversationID string, activity *models.Activity) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, SentActivity{ConversationID: conversationID, Activity: activity})
	return fmt.Sprintf("msg-%d", m.nextID), nil
}

func (m *MockConnector) CreateConversation(ctx context.Context, params connector.ConversationParameters) (string, error) {
	return "1on1-" + params.Members[0].ID, nil
}

func (m *MockConnector) UpdateActivity(ctx context.Context, conversationID, activityID string, activity *models.Activity) (string, error) {
	return activityID, nil
}

func newTurn(conn *MockConnector, store persistence.ConversationStore, activity *models.Activity) *bot.Turn {
	return &bot.Turn{
		Activity:      activity,
		Connector:     conn,
		Conversations: store,
		Records:       persistence.NewMemoryRecordStore(),
		Log:           zap.NewNop().Sugar(),
		RetryAttempts: 3,
	}
}

func groupActivity(from string, inTeam bool) *models.Activity {
	activity := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         models.ChannelAccount{ID: from, Name: from},
		Recipient:    models.ChannelAccount{ID: "bot", Name: "matchbot"},
		Conversation: models.ConversationAccount{ID: "conv"},
	}
	if inTeam {
		activity.ChannelData.Team = &models.TeamInfo{ID: "team"}
	}
	return activity
}

func TestHello(t *testing.T) {
	conn := &MockConnector{}
	turn := newTurn(conn, persistence.NewMemoryConversationStore(), groupActivity("alice", false))

	if err := Hello(context.Background(), turn); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 1 || conn.Sent[0].Activity.Text != "Hello!" {
		t.Fatalf("expected a single 'Hello!' reply, got %+v", conn.Sent)
	}
}

func TestDefault(t *testing.T) {
	conn := &MockConnector{}
	turn := newTurn(conn, persistence.NewMemoryConversationStore(), groupActivity("alice", false))

	if err := Default(context.Background(), turn); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 1 || !strings.Contains(conn.Sent[0].Activity.Text, "didn't understand") {
		t.Fatalf("expected the apology reply, got %+v", conn.Sent)
	}
}

func TestGreet_SkipsSenderAndCountsGreetings(t *testing.T) {
	conn := &MockConnector{Members: []models.ChannelAccount{
		{ID: "alice", Name: "alice"},
		{ID: "bob", Name: "bob"},
	}}
	store := persistence.NewMemoryConversationStore()

	// Alice triggers the greeting twice.
	for i := 0; i < 2; i++ {
		turn := newTurn(conn, store, groupActivity("alice", false))
		if err := Greet(context.Background(), turn); err != nil {
			t.Fatal(err)
		}
	}

	// Only bob is greeted, once per run, with an increasing count.
	if len(conn.Sent) != 2 {
		t.Fatalf("expected 2 greetings, got %d", len(conn.Sent))
	}
	for _, s := range conn.Sent {
		if s.ConversationID != "1on1-bob" {
			t.Errorf("greeting went to %s, the sender must be skipped", s.ConversationID)
		}
	}
	if !strings.Contains(conn.Sent[0].Activity.Text, "1 time)") {
		t.Errorf("first greeting = %q", conn.Sent[0].Activity.Text)
	}
	if !strings.Contains(conn.Sent[1].Activity.Text, "2 times)") {
		t.Errorf("second greeting = %q", conn.Sent[1].Activity.Text)
	}

	// The counter is durable conversation state.
	raw, _, err := store.Load(context.Background(), persistence.Address{ChannelID: "bot", ConversationID: "conv"}, "bob")
	if err != nil {
		t.Fatalf("counter should be persisted: %v", err)
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil || count != 2 {
		t.Errorf("persisted counter = %s", raw)
	}
}

func TestBeginMatch_OutsideTeam(t *testing.T) {
	conn := &MockConnector{Members: []models.ChannelAccount{
		{ID: "alice"}, {ID: "bob"},
	}}
	store := persistence.NewMemoryConversationStore()
	manager := match.NewManager(conn, store, persistence.NewMemoryRecordStore(), zap.NewNop().Sugar(), nil, 3, 0)

	turn := newTurn(conn, store, groupActivity("alice", false))
	if err := BeginMatch(manager)(context.Background(), turn); err != nil {
		t.Fatal(err)
	}

	if len(conn.Sent) != 1 || !strings.Contains(conn.Sent[0].Activity.Text, "within a Team") {
		t.Fatalf("expected the team-only explanation, got %+v", conn.Sent)
	}
}

func TestBuildRouter_Wiring(t *testing.T) {
	conn := &MockConnector{Members: []models.ChannelAccount{
		{ID: "alice"}, {ID: "bob"},
	}}
	store := persistence.NewMemoryConversationStore()
	manager := match.NewManager(conn, store, persistence.NewMemoryRecordStore(), zap.NewNop().Sugar(), nil, 3, 0)
	r := BuildRouter(manager)

	// "begin match" inside a team fans out prompt cards.
	activity := groupActivity("alice", true)
	activity.Text = "begin match"
	if err := r.Dispatch(context.Background(), newTurn(conn, store, activity)); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 3 {
		t.Fatalf("expected status card and 2 prompts, got %d sends", len(conn.Sent))
	}

	// Unknown text falls through to the default apology.
	conn.Sent = nil
	activity = groupActivity("alice", true)
	activity.Text = "do something else"
	if err := r.Dispatch(context.Background(), newTurn(conn, store, activity)); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 1 || !strings.Contains(conn.Sent[0].Activity.Text, "didn't understand") {
		t.Fatalf("expected the default reply, got %+v", conn.Sent)
	}
}
