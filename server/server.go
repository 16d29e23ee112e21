package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/duelserver/auth"
	"github.com/wfunc/duelserver/broadcast"
	"github.com/wfunc/duelserver/config"
	"github.com/wfunc/duelserver/duel"
	"github.com/wfunc/duelserver/events"
	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/models"
	"github.com/wfunc/duelserver/monitor"
	"github.com/wfunc/duelserver/network"
	"github.com/wfunc/duelserver/persistence"
	duelrpc "github.com/wfunc/duelserver/rpc"
	"github.com/wfunc/duelserver/services"
	"github.com/wfunc/duelserver/session"
	"github.com/wfunc/duelserver/timer"
)

// 错误码，客户端依赖这些稳定值
const (
	CodeInsufficientDeck = "INSUFFICIENT_DECK"
	CodeAlreadyInQueue   = "ALREADY_IN_QUEUE"
	CodeAlreadyInMatch   = "ALREADY_IN_MATCH"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeCardNotFound     = "CARD_NOT_FOUND"
	CodeCardNotOwned     = "CARD_NOT_OWNED"
	CodeAlreadyCommitted = "ALREADY_COMMITTED"
	CodeOneselfDuel      = "ONESELF_DUEL"
	CodeQueueJoinFailed  = "QUEUE_JOIN_FAILED"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	verifier       *auth.Verifier
	cardService    *services.CardService
	sessionManager *session.Manager
	queue          *duel.Queue
	store          *duel.Store
	dealer         *duel.Dealer
	broadcaster    broadcast.Broadcaster
	rpcServer      *duelrpc.Server
	monitor        *monitor.Monitor
	timers         *timer.TimerManager
	publisher      *events.Publisher
	rules          duel.Rules

	// mu serializes matchmaking: queue join/leave, pairing and room
	// creation/removal form one critical section. Deck loading and
	// token checks happen before it is taken.
	mu           sync.Mutex
	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database, publisher *events.Publisher, source rand.Source) *GameServer {
	store := duel.NewStore()
	sessionManager := session.NewManager()

	s := &GameServer{
		cfg:            cfg,
		verifier:       auth.NewVerifier(cfg.Auth.JWTSecret),
		cardService:    services.NewCardService(db, cfg.Duel.MinDeckSize),
		sessionManager: sessionManager,
		queue:          duel.NewQueue(store),
		store:          store,
		dealer:         duel.NewDealer(cfg.Duel.MinDeckSize, cfg.Duel.HandSize, source),
		monitor:        monitor.NewMonitor("duelserver"),
		timers:         timer.NewTimerManager(),
		publisher:      publisher,
		rules: duel.Rules{
			WinScore:  cfg.Duel.WinScore,
			MaxRounds: cfg.Duel.MaxRounds,
		},
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewDuelBroadcaster(store, sessionManager)

	rpcServer, err := duelrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	duelService := duelrpc.NewDuelService(s.queue, s.store, s.cardService)
	rpc.Register(duelService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	// 定时刷新队列/房间指标
	s.timers.AddTimer(0, 5*time.Second, func() {
		s.monitor.SetQueuedPlayers(s.queue.Len())
		s.monitor.SetActiveDuels(s.store.Count())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Duel server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn), r.URL.Query().Get("token"))
}

func (s *GameServer) handleConnection(conn network.Connection, token string) {
	// 握手令牌验证失败时不注册会话，直接断开
	claims, err := s.verifier.Verify(token)
	if err != nil {
		logger.Log.Warnf("Auth failed for %s: %v", conn.RemoteAddr(), err)
		data, _ := json.Marshal(errorPayload{Code: "AUTH_FAILED", Message: "authentication failed"})
		conn.Send(network.MsgTypeAuthError, data)
		conn.Close()
		return
	}

	sess := session.NewSession(uuid.New().String(), conn)
	sess.SetIdentity(claims.UserID(), claims.Username)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s, user: %s",
		conn.RemoteAddr(), sess.GetID(), claims.Username)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	s.monitor.IncMessagesReceived()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeJoinQueue:
		s.handleJoinQueue(sess)
	case network.MsgTypeLeaveQueue:
		s.handleLeaveQueue(sess)
	case network.MsgTypePlayCard:
		s.handlePlayCard(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleJoinQueue authenticates nothing (the connection already is),
// loads the deck, and runs the join/pair/create sequence atomically.
func (s *GameServer) handleJoinQueue(sess *session.Session) {
	deck, err := s.cardService.GetDeckForUser(sess.UserID)
	if err != nil {
		logger.Log.Errorf("Failed to load deck for user %s: %v", sess.UserID, err)
		s.sendError(sess.ID, CodeQueueJoinFailed, "failed to load deck")
		return
	}
	if len(deck) < s.cfg.Duel.MinDeckSize {
		s.sendError(sess.ID, CodeInsufficientDeck, "at least 10 cards are required to duel")
		return
	}

	player := duel.NewPlayer(sess.ID, sess.UserID, sess.Username, deck)

	s.mu.Lock()
	pair, paired, err := s.queue.Join(player)
	if err != nil {
		s.mu.Unlock()
		switch err {
		case duel.ErrAlreadyQueued:
			s.sendError(sess.ID, CodeAlreadyInQueue, "already waiting for an opponent")
		case duel.ErrAlreadyInMatch:
			s.sendError(sess.ID, CodeAlreadyInMatch, "already in an active duel")
		default:
			s.sendError(sess.ID, CodeQueueJoinFailed, "could not join the queue")
		}
		return
	}

	if !paired {
		s.mu.Unlock()
		logger.Log.Infof("玩家 %s 进入匹配队列", sess.Username)
		s.sendTo(sess.ID, network.MsgTypeWaitingForOpponent, struct{}{})
		return
	}

	p1, p2 := pair[0], pair[1]

	// 自我配对保护：同一用户的两个条目绝不能开局
	if p1.UserID == p2.UserID {
		s.mu.Unlock()
		logger.Log.Errorf("Self-pairing detected for user %s, duel rejected", p1.UserID)
		s.sendError(p1.SessionID, CodeOneselfDuel, "cannot duel yourself")
		if p2.SessionID != p1.SessionID {
			s.sendError(p2.SessionID, CodeOneselfDuel, "cannot duel yourself")
		}
		if sess.ID != p1.SessionID && sess.ID != p2.SessionID {
			// 触发配对的玩家仍在排队
			s.sendTo(sess.ID, network.MsgTypeWaitingForOpponent, struct{}{})
		}
		return
	}

	hand1, err1 := s.dealer.Deal(p1.Deck)
	hand2, err2 := s.dealer.Deal(p2.Deck)
	if err1 != nil || err2 != nil {
		// 双方都必须独立满足最小卡组，合格的一方回到队首
		if err1 == nil {
			s.queue.Requeue(p1)
		}
		if err2 == nil {
			s.queue.Requeue(p2)
		}
		s.mu.Unlock()
		if err1 != nil {
			s.sendError(p1.SessionID, CodeInsufficientDeck, "at least 10 cards are required to duel")
		}
		if err2 != nil {
			s.sendError(p2.SessionID, CodeInsufficientDeck, "at least 10 cards are required to duel")
		}
		return
	}
	p1.Hand = hand1
	p2.Hand = hand2

	room := s.store.Create(p1, p2, s.rules)
	for _, p := range room.Players {
		if playerSess, ok := s.sessionManager.Get(p.SessionID); ok {
			playerSess.SetRoomID(room.ID)
		}
	}
	s.mu.Unlock()

	s.publisher.DuelStarted(room.ID, []string{p1.UserID, p2.UserID})

	s.sendTo(p1.SessionID, network.MsgTypeDuelStart, duelStartPayload{
		RoomID:   room.ID,
		Opponent: p2.Username,
		Hand:     p1.Hand,
	})
	s.sendTo(p2.SessionID, network.MsgTypeDuelStart, duelStartPayload{
		RoomID:   room.ID,
		Opponent: p1.Username,
		Hand:     p2.Hand,
	})
}

func (s *GameServer) handleLeaveQueue(sess *session.Session) {
	s.mu.Lock()
	s.queue.Leave(sess.UserID)
	s.mu.Unlock()

	// 幂等操作，总是确认成功
	s.sendTo(sess.ID, network.MsgTypeQueueLeft, struct{}{})
}

func (s *GameServer) handlePlayCard(sess *session.Session, packet *network.Packet) {
	var req playCardRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.CardID == "" {
		s.sendError(sess.ID, CodeCardNotFound, "missing card id")
		return
	}

	room, ok := s.store.FindByConnection(sess.ID)
	if !ok {
		s.sendError(sess.ID, CodeRoomNotFound, "no active duel for this connection")
		return
	}

	start := time.Now()
	outcome, err := room.CommitPlay(sess.ID, req.CardID)
	if err != nil {
		switch err {
		case duel.ErrAlreadyCommitted:
			s.sendError(sess.ID, CodeAlreadyCommitted, "card already played this round")
		case duel.ErrCardNotOwned:
			s.sendError(sess.ID, CodeCardNotOwned, "card is not in your hand")
		case duel.ErrDuelFinished, duel.ErrNotParticipant:
			s.sendError(sess.ID, CodeRoomNotFound, "no active duel for this connection")
		default:
			logger.Log.Errorf("Commit failed in room %s: %v", room.ID, err)
		}
		return
	}
	if outcome == nil {
		// 已记录，等待对方出牌
		return
	}

	s.monitor.ObserveRoundLatency(time.Since(start))
	s.emitRoundOutcome(room, outcome)
}

func (s *GameServer) emitRoundOutcome(room *duel.Room, outcome *duel.RoundOutcome) {
	summary, _ := json.Marshal(roundSummaryPayload{
		Round:   outcome.Round,
		MetricA: outcome.Metrics[0],
		MetricB: outcome.Metrics[1],
		Result:  outcome.Result,
		Scores:  outcome.Scores,
	})
	s.broadcaster.BroadcastToRoom(room.ID, network.MsgTypeRoundSummary, summary)

	// 每一侧收到个性化的回合结果
	for i, p := range room.Players {
		s.sendTo(p.SessionID, network.MsgTypeRoundResult, roundResultPayload{
			YourCard:     outcome.Cards[i],
			OpponentCard: outcome.Cards[1-i],
			Result:       outcome.Result,
			Scores:       outcome.Scores,
		})
	}

	if outcome.Finished {
		s.finishDuel(room, outcome.Scores, outcome.Winner, outcome.Rounds, false)
		return
	}

	for i, p := range room.Players {
		s.sendTo(p.SessionID, network.MsgTypeNextRound, nextRoundPayload{
			Round: outcome.NextRound,
			Hand:  outcome.Hands[i],
		})
	}
}

// finishDuel emits the per-side duel_ended notifications, removes the
// room and records the result. Must be called exactly once per room.
func (s *GameServer) finishDuel(room *duel.Room, scores map[string]int, winner *duel.Player, rounds int, forfeit bool) {
	var winnerRef *winnerPayload
	if winner != nil {
		winnerRef = &winnerPayload{UserID: winner.UserID, Username: winner.Username}
	}

	for _, p := range room.Players {
		var finalResult string
		switch {
		case winner == nil && forfeit:
			finalResult = "The duel ended in a draw. Your opponent disconnected."
		case winner == nil:
			finalResult = "The duel ended in a draw!"
		case winner.UserID == p.UserID && forfeit:
			finalResult = "You won! Your opponent disconnected."
		case winner.UserID == p.UserID:
			finalResult = "You won the duel!"
		default:
			finalResult = "You lost the duel!"
		}

		s.sendTo(p.SessionID, network.MsgTypeDuelEnded, duelEndedPayload{
			FinalResult: finalResult,
			Scores:      scores,
			Winner:      winnerRef,
		})
	}

	s.mu.Lock()
	s.store.Remove(room.ID)
	s.mu.Unlock()

	for _, p := range room.Players {
		if playerSess, ok := s.sessionManager.Get(p.SessionID); ok {
			playerSess.SetRoomID("")
		}
	}

	record := s.buildRecord(room, scores, winner, rounds, forfeit)
	s.publisher.DuelEnded(record)

	outcomeLabel := "draw"
	if forfeit {
		outcomeLabel = "forfeit"
	} else if winner != nil {
		outcomeLabel = "win"
	}
	s.monitor.IncDuelsCompleted(outcomeLabel)

	// 记录失败只记日志，绝不影响对决本身
	if err := s.cardService.RecordDuelResult(record); err != nil {
		logger.Log.Errorf("Failed to record duel %s: %v", room.ID, err)
	}
}

func (s *GameServer) buildRecord(room *duel.Room, scores map[string]int, winner *duel.Player, rounds int, forfeit bool) models.DuelRecord {
	record := models.DuelRecord{
		RoomID:    room.ID,
		Scores:    scores,
		Rounds:    rounds,
		Forfeit:   forfeit,
		StartedAt: room.CreatedAt,
		EndedAt:   time.Now(),
	}
	if winner != nil {
		record.WinnerID = winner.UserID
	}
	for _, p := range room.Players {
		info := models.PlayerInfo{
			UserID:   p.UserID,
			Username: p.Username,
			Score:    scores[p.UserID],
			Outcome:  "draw",
		}
		if winner != nil {
			if winner.UserID == p.UserID {
				info.Outcome = "win"
			} else {
				info.Outcome = "lose"
			}
		}
		record.Players = append(record.Players, info)
	}
	return record
}

// handleDisconnect removes the user from the queue and, if the
// connection was in a live duel, forces the forfeit outcome.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	s.mu.Lock()
	s.queue.Leave(sess.UserID)
	room, inRoom := s.store.FindByConnection(sess.ID)
	s.mu.Unlock()

	if !inRoom {
		return
	}

	outcome, err := room.Forfeit(sess.ID)
	if err != nil {
		// 房间已经终结，清理索引即可
		s.mu.Lock()
		s.store.Remove(room.ID)
		s.mu.Unlock()
		return
	}

	s.finishDuel(room, outcome.Scores, outcome.Winner, outcome.Rounds, true)
}

// --- outbound helpers ---

func (s *GameServer) sendTo(sessionID string, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal message %d: %v", msgID, err)
		return
	}
	if err := s.broadcaster.SendToSession(sessionID, msgID, data); err != nil {
		logger.Log.Warnf("Failed to send message %d to session %s: %v", msgID, sessionID, err)
	}
}

func (s *GameServer) sendError(sessionID, code, message string) {
	s.sendTo(sessionID, network.MsgTypeError, errorPayload{Code: code, Message: message})
}
