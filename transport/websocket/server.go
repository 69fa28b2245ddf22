package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/pkg"
	"github.com/gamehubio/gamehub-backend/internal/service"
)

type Server struct {
	logger *slog.Logger

	hub         *Hub
	matchmaking service.MatchmakingService
	coordinator service.CoordinatorService

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, sess *session, msg *Message) error
}

// session is the per-connection state: the connection id is assigned at
// upgrade, the player id only after a successful register.
type session struct {
	connID   string
	playerID string
	client   *client
	conn     *websocket.Conn
}

func New(logger *slog.Logger, hub *Hub, matchmaking service.MatchmakingService, coordinator service.CoordinatorService) *Server {
	server := &Server{
		logger:      logger.With("component", "wsServer"),
		hub:         hub,
		matchmaking: matchmaking,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *session, *Message) error),
	}

	server.handlers["register"] = server.handleRegister
	server.handlers["requestMatch"] = server.handleRequestMatch
	server.handlers["cancelRequest"] = server.handleCancelRequest
	server.handlers["joinMatchRoom"] = server.handleJoinMatchRoom
	server.handlers["makeMove"] = server.handleMakeMove
	server.handlers["offerDraw"] = server.handleOfferDraw
	server.handlers["cancelDraw"] = server.handleCancelDraw
	server.handlers["acceptDraw"] = server.handleAcceptDraw
	server.handlers["refuseDraw"] = server.handleRefuseDraw
	server.handlers["leaveMatch"] = server.handleLeaveMatch

	return server
}

// Start - starts the WebSocket server and shuts it down when ctx ends.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sess := &session{
		connID: pkg.GenerateNewSessionID(),
		conn:   conn,
	}

	log.Info("connection established", "connID", sess.connID)

	that.readLoop(ctx, sess)
	that.closeSession(ctx, sess)
}

func (that *Server) readLoop(ctx context.Context, sess *session) {
	log := that.logger.With("method", "readLoop", "connID", sess.connID)

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			that.sendError(sess, "malformed message")
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.sendError(sess, fmt.Sprintf("unknown action %q", msg.Action))
			continue
		}

		if err = handler(ctx, sess, &msg); err != nil {
			log.Error("failed to handle message", "action", msg.Action, "error", err)
			that.sendError(sess, userMessage(err))
		}
	}
}

// closeSession tears down everything the connection held: its hub entry,
// its matchmaking ticket and its presence. A session displaced by a newer
// connection for the same player gives up only its socket; the player
// state belongs to the new connection.
func (that *Server) closeSession(ctx context.Context, sess *session) {
	log := that.logger.With("method", "closeSession", "connID", sess.connID)

	_ = sess.conn.Close()

	if sess.playerID == "" {
		return
	}

	if sess.client != nil && !that.hub.detach(sess.playerID, sess.client) {
		// the player reconnected and this session was displaced; the new
		// connection owns the player state now
		log.Info("stale connection closed", "playerID", sess.playerID)
		return
	}

	if err := that.matchmaking.CancelRequest(ctx, sess.playerID); err != nil {
		log.Error("failed to cancel matchmaking request", "error", err)
	}

	if err := that.coordinator.HandleDisconnect(ctx, sess.playerID); err != nil {
		log.Error("failed to handle disconnect", "error", err)
	}

	log.Info("player disconnected", "playerID", sess.playerID)
}

// sendError reaches only the acting connection, never the match room.
func (that *Server) sendError(sess *session, message string) {
	if sess.client != nil {
		that.hub.ToPlayer(sess.playerID, service.EventError, service.ErrorPayload{Message: message})
		return
	}

	frame, err := json.Marshal(Envelope{Event: service.EventError, Payload: service.ErrorPayload{Message: message}})
	if err != nil {
		return
	}

	_ = sess.conn.WriteMessage(websocket.TextMessage, frame)
}

// userMessage maps known failures to something a client can show; anything
// unexpected stays generic.
func userMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrMatchNotFound):
		return "match not found"
	case errors.Is(err, apperror.ErrMatchFinished):
		return "match is already finished"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not your turn"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "cell is already occupied"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "cell is out of range"
	case errors.Is(err, apperror.ErrNotParticipant):
		return "you are not in this match"
	case errors.Is(err, apperror.ErrAlreadyQueued):
		return "already waiting for a match"
	case errors.Is(err, apperror.ErrAlreadyInMatch):
		return "already in a match"
	case errors.Is(err, apperror.ErrDrawAlreadyOffered):
		return "a draw has already been offered"
	default:
		return "internal error"
	}
}
