package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
)

const ticketKeyPrefix = "mm:ticket:"

// matchOrEnqueueScript makes "find the oldest waiting partner" and "insert
// my own ticket" one atomic queue step. Two players requesting at the same
// instant can therefore never both consume the same ticket, and never both
// enqueue without seeing each other.
var matchOrEnqueueScript = redis.NewScript(`
local queueKey = KEYS[1]
local selfID = ARGV[1]
local ticketJSON = ARGV[2]
local score = tonumber(ARGV[3])
local prefix = ARGV[4]

if redis.call('EXISTS', prefix .. selfID) == 1 then
	return {'queued', ''}
end

local ids = redis.call('ZRANGE', queueKey, 0, -1)
for _, id in ipairs(ids) do
	if id ~= selfID then
		local partner = redis.call('GET', prefix .. id)
		redis.call('ZREM', queueKey, id)
		redis.call('DEL', prefix .. id)
		if partner then
			return {'matched', partner}
		end
	end
end

redis.call('SET', prefix .. selfID, ticketJSON)
redis.call('ZADD', queueKey, score, selfID)
return {'waiting', ''}
`)

// cancelScript drops a player's ticket and its queue entry together. The
// queue key is derived from the stored ticket so a cancel can never remove
// a queue entry that pairing already consumed.
var cancelScript = redis.NewScript(`
local prefix = ARGV[1]
local selfID = ARGV[2]

local ticketJSON = redis.call('GET', prefix .. selfID)
if not ticketJSON then
	return 0
end

local ticket = cjson.decode(ticketJSON)
redis.call('ZREM', 'mm:queue:' .. ticket['game'], selfID)
redis.call('DEL', prefix .. selfID)
return 1
`)

type TicketRepository interface {
	// MatchOrEnqueue atomically pairs the ticket with the oldest waiting
	// ticket of a different player for the same game, or enqueues it.
	// Returns the consumed partner ticket when a pairing happened, nil when
	// the caller was enqueued, and ErrAlreadyQueued when the caller still
	// holds an outstanding ticket.
	MatchOrEnqueue(ctx context.Context, ticket *entity.Ticket) (*entity.Ticket, error)

	// Cancel removes the player's outstanding ticket. Reports whether a
	// ticket was actually removed; canceling nothing is not an error.
	Cancel(ctx context.Context, playerID string) (bool, error)
}

type dbTicket struct {
	client *redis.Client
}

func NewTicketRepository(client *redis.Client) TicketRepository {
	return &dbTicket{
		client: client,
	}
}

func queueKey(game string) string {
	return "mm:queue:" + game
}

func (that *dbTicket) MatchOrEnqueue(ctx context.Context, ticket *entity.Ticket) (*entity.Ticket, error) {
	ticketJSON, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("could not marshal ticket: %w", err)
	}

	result, err := matchOrEnqueueScript.Run(ctx, that.client,
		[]string{queueKey(ticket.Game)},
		ticket.PlayerID, ticketJSON, ticket.CreatedAt.UnixNano(), ticketKeyPrefix,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to run matchmaking script: %w", err)
	}

	reply, ok := result.([]interface{})
	if !ok || len(reply) != 2 {
		return nil, fmt.Errorf("unexpected matchmaking script reply: %v", result)
	}

	status, _ := reply[0].(string)
	payload, _ := reply[1].(string)

	switch status {
	case "queued":
		return nil, apperror.ErrAlreadyQueued
	case "waiting":
		return nil, nil
	case "matched":
		var partner entity.Ticket
		if err = json.Unmarshal([]byte(payload), &partner); err != nil {
			return nil, fmt.Errorf("failed to unmarshal partner ticket: %w", err)
		}
		return &partner, nil
	default:
		return nil, fmt.Errorf("unexpected matchmaking script status: %q", status)
	}
}

func (that *dbTicket) Cancel(ctx context.Context, playerID string) (bool, error) {
	removed, err := cancelScript.Run(ctx, that.client, []string{}, ticketKeyPrefix, playerID).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cancel ticket: %w", err)
	}

	return removed == 1, nil
}
