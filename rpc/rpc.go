package rpc

import (
	"context"
	"net"
	"net/rpc"

	"github.com/wfunc/matchbot/logger"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RecordService exposes service-record lookup to operators.
type RecordService struct {
	records persistence.RecordStore
}

// NewRecordService creates a new RecordService.
func NewRecordService(records persistence.RecordStore) *RecordService {
	return &RecordService{records: records}
}

type GetRecordArgs struct {
	UserID   string
	ObjectID string
}

type GetRecordReply struct {
	Record *models.ServiceRecord
}

// GetServiceRecord looks up a record by user id, or by directory
// object id when UserID is empty.
func (rs *RecordService) GetServiceRecord(args *GetRecordArgs, reply *GetRecordReply) error {
	var record *models.ServiceRecord
	var err error
	if args.UserID != "" {
		record, err = rs.records.Get(context.Background(), args.UserID)
	} else {
		record, err = rs.records.GetByObjectID(context.Background(), args.ObjectID)
	}
	if err != nil {
		return err
	}
	reply.Record = record
	return nil
}
