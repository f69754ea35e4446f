package main

import (
	netrpc "net/rpc"

	"github.com/joho/godotenv"

	"github.com/wfunc/matchbot/config"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/logger"
	"github.com/wfunc/matchbot/monitor"
	"github.com/wfunc/matchbot/persistence"
	"github.com/wfunc/matchbot/rpc"
	"github.com/wfunc/matchbot/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Optional .env overrides picked up by viper's AutomaticEnv.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize stores
	var conversations persistence.ConversationStore
	var records persistence.RecordStore
	switch cfg.Database.Driver {
	case "postgres":
		pg := cfg.Database.Postgres
		conversationStore, err := persistence.NewPostgresConversationStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		recordStore, err := persistence.NewGormRecordStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		conversations = conversationStore
		records = recordStore
		logger.Log.Info("Database connection successful.")
	default:
		// In-memory stores; match and record state does not survive a
		// restart.
		conversations = persistence.NewMemoryConversationStore()
		records = persistence.NewMemoryRecordStore()
		logger.Log.Info("Using in-memory stores.")
	}

	// Metrics endpoint
	mon := monitor.NewMonitor("matchbot")
	mon.StartServer(cfg.Server.MetricsAddress)

	// RPC record lookup for operators
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	netrpc.Register(rpc.NewRecordService(records))
	go rpcServer.Start()

	// Chat-service connector
	conn := connector.NewClient(cfg.Bot.ServiceURL, cfg.Bot.AppSecret)

	// Start Server
	botServer := server.NewBotServer(cfg, conn, conversations, records, mon)
	logger.Log.Infof("Starting bot server on %s", cfg.Server.HTTPAddress)
	if err := botServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
