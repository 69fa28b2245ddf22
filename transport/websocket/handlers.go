package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gamehubio/gamehub-backend/internal/service"
)

var errNotRegistered = errors.New("register first")

func (that *Server) handleRegister(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleRegister", "connID", sess.connID)

	var payload registerPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := payload.validate(); err != nil {
		that.sendError(sess, err.Error())
		return nil
	}

	player, err := that.coordinator.Register(ctx, payload.PlayerID)
	if err != nil {
		return fmt.Errorf("failed to register player: %w", err)
	}

	sess.playerID = player.ID
	sess.client = that.hub.attach(player.ID, sess.conn)

	if player.MatchID != "" {
		that.hub.JoinRoom(player.MatchID, player.ID)
	}

	that.hub.ToPlayer(player.ID, service.EventRegistered, player)
	log.Info("player registered", "playerID", player.ID)

	return nil
}

func (that *Server) handleRequestMatch(ctx context.Context, sess *session, msg *Message) error {
	if sess.playerID == "" {
		return errNotRegistered
	}

	var payload requestMatchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := payload.validate(); err != nil {
		that.sendError(sess, err.Error())
		return nil
	}

	// waiting / matchFound are broadcast by the matchmaking service
	_, err := that.matchmaking.RequestMatch(ctx, sess.playerID, sess.connID, payload.Game)
	if err != nil {
		return err
	}

	return nil
}

func (that *Server) handleCancelRequest(ctx context.Context, sess *session, _ *Message) error {
	if sess.playerID == "" {
		return errNotRegistered
	}

	return that.matchmaking.CancelRequest(ctx, sess.playerID)
}

func (that *Server) handleJoinMatchRoom(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleJoinMatchRoom", "playerID", sess.playerID)

	if sess.playerID == "" {
		return errNotRegistered
	}

	var payload matchRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := payload.validate(); err != nil {
		that.sendError(sess, err.Error())
		return nil
	}

	match, err := that.coordinator.GetMatch(ctx, payload.MatchID)
	if err != nil {
		return err
	}

	if !match.IsParticipant(sess.playerID) {
		that.sendError(sess, "you are not in this match")
		return nil
	}

	that.hub.JoinRoom(match.ID, sess.playerID)
	that.hub.ToMatch(match.ID, service.EventPlayerJoined, service.PlayerJoinedPayload{PlayerID: sess.playerID})

	log.Info("joined match room", "matchID", match.ID)

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, sess *session, msg *Message) error {
	if sess.playerID == "" {
		return errNotRegistered
	}

	var payload makeMovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := payload.validate(); err != nil {
		that.sendError(sess, err.Error())
		return nil
	}

	return that.coordinator.ApplyMove(ctx, payload.MatchID, sess.playerID, *payload.Cell)
}

func (that *Server) handleOfferDraw(ctx context.Context, sess *session, msg *Message) error {
	matchID, err := that.matchIDFrom(sess, msg)
	if err != nil || matchID == "" {
		return err
	}

	return that.coordinator.OfferDraw(ctx, matchID, sess.playerID)
}

func (that *Server) handleCancelDraw(ctx context.Context, sess *session, msg *Message) error {
	matchID, err := that.matchIDFrom(sess, msg)
	if err != nil || matchID == "" {
		return err
	}

	return that.coordinator.CancelDraw(ctx, matchID, sess.playerID)
}

func (that *Server) handleAcceptDraw(ctx context.Context, sess *session, msg *Message) error {
	matchID, err := that.matchIDFrom(sess, msg)
	if err != nil || matchID == "" {
		return err
	}

	return that.coordinator.AcceptDraw(ctx, matchID)
}

func (that *Server) handleRefuseDraw(ctx context.Context, sess *session, msg *Message) error {
	matchID, err := that.matchIDFrom(sess, msg)
	if err != nil || matchID == "" {
		return err
	}

	return that.coordinator.RefuseDraw(ctx, matchID, sess.playerID)
}

func (that *Server) handleLeaveMatch(ctx context.Context, sess *session, msg *Message) error {
	matchID, err := that.matchIDFrom(sess, msg)
	if err != nil || matchID == "" {
		return err
	}

	if err = that.coordinator.LeaveMatch(ctx, matchID, sess.playerID); err != nil {
		return err
	}

	that.hub.LeaveRoom(matchID, sess.playerID)

	return nil
}

// matchIDFrom handles the shared shape of the draw and leave actions: a
// registered session plus a matchId payload. An empty return with nil
// error means a validation message already went back to the client.
func (that *Server) matchIDFrom(sess *session, msg *Message) (string, error) {
	if sess.playerID == "" {
		return "", errNotRegistered
	}

	var payload matchRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := payload.validate(); err != nil {
		that.sendError(sess, err.Error())
		return "", nil
	}

	return payload.MatchID, nil
}
