package deploy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fleetpush/fleetpush/pkg/inventory"
	"github.com/fleetpush/fleetpush/pkg/util"
)

// RedisPublisher mirrors run progress into Redis so remote observers
// (dashboards, the UI collaborator) can follow a run without access to
// the local state directory. Per-device status lands in a hash at
// "fleetpush|run|<id>", and each outcome is published on the
// "fleetpush:runs" channel as JSON. Publishing is best-effort: Redis
// errors are logged and never affect the run.
type RedisPublisher struct {
	client  *redis.Client
	timeout time.Duration
	runID   string
}

// runEvent is the pub/sub payload for one outcome.
type runEvent struct {
	RunID     string        `json:"run_id"`
	DeviceID  string        `json:"device_id"`
	Status    Status        `json:"status"`
	Reason    FailureReason `json:"reason,omitempty"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
}

// NewRedisPublisher connects to the given Redis address.
func NewRedisPublisher(addr string) *RedisPublisher {
	return &RedisPublisher{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		timeout: 2 * time.Second,
	}
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) runKey(runID string) string {
	return "fleetpush|run|" + runID
}

func (p *RedisPublisher) RunStart(state *RunState, devices []*inventory.Device) {
	p.runID = state.RunID
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	args := make([]interface{}, 0, len(devices)*2+4)
	args = append(args, "status", string(state.Status), "total", state.Total)
	for _, d := range devices {
		args = append(args, d.ID(), "Pending")
	}
	if err := p.client.HSet(ctx, p.runKey(state.RunID), args...).Err(); err != nil {
		util.Logger.Warnf("redis publish run start: %v", err)
	}
}

func (p *RedisPublisher) DeviceDone(out *Outcome, completed, total int) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.HSet(ctx, p.runKey(p.runID), out.DeviceID, string(out.Status)).Err(); err != nil {
		util.Logger.Warnf("redis publish device status: %v", err)
	}

	ev := runEvent{
		RunID:     p.runID,
		DeviceID:  out.DeviceID,
		Status:    out.Status,
		Reason:    out.Reason,
		Completed: completed,
		Total:     total,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		util.Logger.Warnf("redis marshal event: %v", err)
		return
	}
	if err := p.client.Publish(ctx, "fleetpush:runs", payload).Err(); err != nil {
		util.Logger.Warnf("redis publish outcome: %v", err)
	}
}

func (p *RedisPublisher) RunEnd(state *RunState) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	args := make([]interface{}, 0, len(state.Outcomes)*2+8)
	args = append(args,
		"status", string(state.Status),
		"succeeded", state.Succeeded,
		"failed", state.Failed,
		"skipped", state.Skipped,
	)
	for id, out := range state.Outcomes {
		args = append(args, id, string(out.Status))
	}
	if err := p.client.HSet(ctx, p.runKey(state.RunID), args...).Err(); err != nil {
		util.Logger.Warnf("redis publish run end: %v", err)
	}
}
