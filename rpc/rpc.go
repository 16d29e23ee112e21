package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/duelserver/duel"
	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/models"
	"github.com/wfunc/duelserver/services"
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

// DuelService exposes live matchmaking state and player duel stats
// over net/rpc for operational tooling.
type DuelService struct {
	queue       *duel.Queue
	store       *duel.Store
	cardService *services.CardService
}

func NewDuelService(queue *duel.Queue, store *duel.Store, cardService *services.CardService) *DuelService {
	return &DuelService{
		queue:       queue,
		store:       store,
		cardService: cardService,
	}
}

type StatusArgs struct{}

type StatusReply struct {
	QueuedPlayers int
	ActiveDuels   int
}

func (ds *DuelService) GetStatus(args *StatusArgs, reply *StatusReply) error {
	reply.QueuedPlayers = ds.queue.Len()
	reply.ActiveDuels = ds.store.Count()
	return nil
}

type PlayerStatsArgs struct {
	UserID string
}

type PlayerStatsReply struct {
	Stats *models.PlayerDuelStats
}

func (ds *DuelService) GetPlayerDuelStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := ds.cardService.GetPlayerDuelStats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
