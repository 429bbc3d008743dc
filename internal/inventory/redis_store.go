package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared-state Store implementation. Multi-seat operations
// run as Lua scripts so they are atomic against every other operation on the
// same pool. Hold expiry rides on Redis key TTLs, so SweepExpired has nothing
// to reclaim here.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Key layout:
//   shipline:seats:{schedule}:{class}        set of provisioned seat ids
//   shipline:sold:{schedule}:{class}         set of sold seat ids
//   shipline:hold:{schedule}:{class}:{seat}  holder id, expires via TTL

func seatsKey(key Key) string { return "shipline:seats:" + key.String() }
func soldKey(key Key) string  { return "shipline:sold:" + key.String() }
func holdPrefix(key Key) string {
	return "shipline:hold:" + key.String() + ":"
}

// Atomic multi-seat hold. Fails whole request on the first conflicting seat.
var holdScript = redis.NewScript(`
-- KEYS[1] = sold set
-- KEYS[2] = provisioned seat set
-- ARGV[1] = hold key prefix
-- ARGV[2] = holder id
-- ARGV[3] = ttl seconds
-- ARGV[4..N] = seat ids
for i = 4, #ARGV do
    local seat_id = ARGV[i]
    if redis.call("SISMEMBER", KEYS[2], seat_id) == 0 then
        return {0, seat_id}
    end
    if redis.call("SISMEMBER", KEYS[1], seat_id) == 1 then
        return {0, seat_id}
    end
    local holder = redis.call("GET", ARGV[1] .. seat_id)
    if holder and holder ~= ARGV[2] then
        return {0, seat_id}
    end
end

for i = 4, #ARGV do
    redis.call("SETEX", ARGV[1] .. ARGV[i], tonumber(ARGV[3]), ARGV[2])
end
return {1, "ok"}
`)

// Atomic hold-to-sold transition. A missing hold key means the TTL lapsed.
var commitScript = redis.NewScript(`
-- KEYS[1] = sold set
-- ARGV[1] = hold key prefix
-- ARGV[2] = holder id
-- ARGV[3..N] = seat ids
for i = 3, #ARGV do
    local holder = redis.call("GET", ARGV[1] .. ARGV[i])
    if not holder then
        return {0, ARGV[i], "expired"}
    end
    if holder ~= ARGV[2] then
        return {0, ARGV[i], "holder"}
    end
end

for i = 3, #ARGV do
    redis.call("DEL", ARGV[1] .. ARGV[i])
    redis.call("SADD", KEYS[1], ARGV[i])
end
return {1, "ok", "ok"}
`)

// Idempotent release: only deletes holds owned by the caller.
var releaseScript = redis.NewScript(`
-- ARGV[1] = hold key prefix
-- ARGV[2] = holder id
-- ARGV[3..N] = seat ids
local released = 0
for i = 3, #ARGV do
    local hold_key = ARGV[1] .. ARGV[i]
    if redis.call("GET", hold_key) == ARGV[2] then
        redis.call("DEL", hold_key)
        released = released + 1
    end
end
return released
`)

// PreloadScripts loads the Lua scripts into Redis so later calls hit EVALSHA.
func (s *RedisStore) PreloadScripts(ctx context.Context) error {
	for _, script := range []*redis.Script{holdScript, commitScript, releaseScript} {
		if err := script.Load(ctx, s.client).Err(); err != nil {
			return fmt.Errorf("failed to load inventory script: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Provision(ctx context.Context, key Key, seatIDs []string) error {
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, seatsKey(key), members...).Err(); err != nil {
		return fmt.Errorf("failed to provision pool %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Hold(ctx context.Context, key Key, seatIDs []string, holderID string, ttl time.Duration) error {
	args := make([]interface{}, 0, len(seatIDs)+3)
	args = append(args, holdPrefix(key), holderID, strconv.Itoa(int(ttl.Seconds())))
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := holdScript.Run(ctx, s.client, []string{soldKey(key), seatsKey(key)}, args...).Result()
	if err != nil {
		return fmt.Errorf("failed to execute atomic seat hold: %w", err)
	}

	ok, conflict, _, err := parseScriptResult(result)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: seat %s", ErrSeatUnavailable, conflict)
	}
	return nil
}

func (s *RedisStore) Commit(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, holdPrefix(key), holderID)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := commitScript.Run(ctx, s.client, []string{soldKey(key)}, args...).Result()
	if err != nil {
		return fmt.Errorf("failed to execute atomic seat commit: %w", err)
	}

	ok, conflict, reason, err := parseScriptResult(result)
	if err != nil {
		return err
	}
	if !ok {
		if reason == "expired" {
			return fmt.Errorf("%w: seat %s", ErrExpiredHold, conflict)
		}
		return fmt.Errorf("%w: seat %s", ErrSeatUnavailable, conflict)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, holdPrefix(key), holderID)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	if err := releaseScript.Run(ctx, s.client, []string{soldKey(key)}, args...).Err(); err != nil {
		return fmt.Errorf("failed to execute atomic seat release: %w", err)
	}
	return nil
}

func (s *RedisStore) Unsell(ctx context.Context, key Key, seatIDs []string) error {
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}
	if err := s.client.SRem(ctx, soldKey(key), members...).Err(); err != nil {
		return fmt.Errorf("failed to unsell seats for %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, key Key) (*Snapshot, error) {
	seatIDs, err := s.client.SMembers(ctx, seatsKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %s: %w", key, err)
	}
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, key)
	}

	sold, err := s.client.SMembers(ctx, soldKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read sold set for %s: %w", key, err)
	}
	soldSet := make(map[string]bool, len(sold))
	for _, id := range sold {
		soldSet[id] = true
	}

	ordered := SortSeatIDs(seatIDs)

	holdKeys := make([]string, len(ordered))
	for i, id := range ordered {
		holdKeys[i] = holdPrefix(key) + id
	}
	holders, err := s.client.MGet(ctx, holdKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read holds for %s: %w", key, err)
	}

	snap := &Snapshot{
		ScheduleID: key.ScheduleID,
		Class:      key.Class,
		TotalSeats: len(ordered),
		Seats:      make([]SeatView, 0, len(ordered)),
	}
	for i, id := range ordered {
		state := SeatAvailable
		if soldSet[id] {
			state = SeatSold
		} else if holders[i] != nil {
			state = SeatHeld
		}
		if state == SeatAvailable {
			snap.Available++
		}
		snap.Seats = append(snap.Seats, SeatView{ID: id, State: state})
	}
	return snap, nil
}

// SweepExpired is a no-op for Redis: hold keys expire via their TTL.
func (s *RedisStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// parseScriptResult decodes the {ok, seat, reason} reply shape shared by the
// hold and commit scripts.
func parseScriptResult(result interface{}) (ok bool, seat, reason string, err error) {
	arr, isArr := result.([]interface{})
	if !isArr || len(arr) < 2 {
		return false, "", "", fmt.Errorf("unexpected result format from inventory script")
	}

	flag, isInt := arr[0].(int64)
	if !isInt {
		return false, "", "", fmt.Errorf("invalid success flag in inventory script result")
	}

	seat, _ = arr[1].(string)
	if len(arr) > 2 {
		reason, _ = arr[2].(string)
	}
	return flag == 1, seat, reason, nil
}
