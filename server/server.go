// Package server exposes the bot over HTTP: the inbound activity
// endpoint, the service-record tab, and a local websocket emulator.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/matchbot/bot"
	"github.com/wfunc/matchbot/config"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/dialogs"
	"github.com/wfunc/matchbot/logger"
	"github.com/wfunc/matchbot/match"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/monitor"
	"github.com/wfunc/matchbot/persistence"
	"github.com/wfunc/matchbot/router"
)

type BotServer struct {
	addr          string
	botAccount    models.ChannelAccount
	connector     connector.Connector
	conversations persistence.ConversationStore
	records       persistence.RecordStore
	matches       *match.Manager
	router        *router.Router
	monitor       *monitor.Monitor
	matchCfg      config.MatchConfig
	upgrader      websocket.Upgrader
}

func NewBotServer(cfg *config.Config, conn connector.Connector, conversations persistence.ConversationStore, records persistence.RecordStore, mon *monitor.Monitor) *BotServer {
	s := &BotServer{
		addr: cfg.Server.HTTPAddress,
		botAccount: models.ChannelAccount{
			ID:   cfg.Bot.ID,
			Name: cfg.Bot.Name,
		},
		connector:     conn,
		conversations: conversations,
		records:       records,
		monitor:       mon,
		matchCfg:      cfg.Match,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.matches = match.NewManager(conn, conversations, records, logger.Log, mon, cfg.Match.RetryAttempts, cfg.Match.RetryBackoff)
	s.router = dialogs.BuildRouter(s.matches)
	return s
}

func (s *BotServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/myservicerecord", s.handleServiceRecordTab)
	mux.HandleFunc("/ws", s.handleEmulator)

	logger.Log.Infof("Bot server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// handleMessages receives one activity per request. Each request is an
// independent unit of work; errors in dialog execution are logged but
// the transport always gets its acknowledgment.
func (s *BotServer) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var activity models.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		http.Error(w, "invalid activity", http.StatusBadRequest)
		return
	}

	if s.monitor != nil {
		s.monitor.IncMessagesReceived()
	}
	start := time.Now()

	response := s.processActivity(r.Context(), &activity, s.connector, s.matches, s.router)

	if s.monitor != nil {
		s.monitor.ObserveDispatchLatency(time.Since(start))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if response != nil {
		json.NewEncoder(w).Encode(response)
	}
}

// processActivity routes one activity through the bot. The connector,
// manager, and router are parameters so the emulator can run the same
// pipeline against its loopback connector. The return value is the
// response body for invoke activities, nil otherwise.
func (s *BotServer) processActivity(ctx context.Context, activity *models.Activity, conn connector.Connector, matches *match.Manager, rt *router.Router) interface{} {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorw("recovered from panic in dialog", "panic", r, "activity", activity.ID)
		}
	}()

	switch {
	case activity.IsCardAction():
		var payload models.CardActionPayload
		if err := json.Unmarshal(activity.Value, &payload); err != nil {
			logger.Log.Errorw("malformed card payload", "error", err)
			return nil
		}
		if err := matches.SubmitChoice(ctx, activity, &payload); err != nil {
			if errors.Is(err, match.ErrSessionNotFound) || errors.Is(err, match.ErrSessionClosed) {
				logger.Log.Warnw("submission rejected", "session", payload.SessionID, "error", err)
			} else {
				logger.Log.Errorw("submission failed", "session", payload.SessionID, "error", err)
			}
		}
	case activity.Type == models.ActivityTypeMessage:
		turn := &bot.Turn{
			Activity:      activity,
			Connector:     conn,
			Conversations: s.conversations,
			Records:       s.records,
			Log:           logger.Log,
			RetryAttempts: s.matchCfg.RetryAttempts,
			RetryBackoff:  s.matchCfg.RetryBackoff,
		}
		if err := rt.Dispatch(ctx, turn); err != nil {
			logger.Log.Errorw("dialog failed", "text", activity.Text, "error", err)
		}
	case activity.Type == models.ActivityTypeInvoke:
		return s.handleInvoke(ctx, activity, conn)
	default:
		// conversationUpdate, reactions and the rest are acknowledged
		// and ignored.
	}
	return nil
}

// handleServiceRecordTab serves the personal record tab.
func (s *BotServer) handleServiceRecordTab(w http.ResponseWriter, r *http.Request) {
	objectID := r.URL.Query().Get("userObjectId")
	if objectID == "" {
		http.Error(w, "userObjectId is required", http.StatusBadRequest)
		return
	}

	record, err := s.records.GetByObjectID(r.Context(), objectID)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "no service record", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(record.Summary()))
}
