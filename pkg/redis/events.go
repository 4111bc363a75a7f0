package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "ordermart:"
	refreshSuffix = ".refreshed"

	// RefreshPattern matches every layer refresh channel.
	RefreshPattern = channelPrefix + "*" + refreshSuffix

	// RunStream holds one entry per finished pipeline run.
	RunStream = channelPrefix + "runs"
)

// RefreshChannel returns the channel announcing a new publish of layer.
func RefreshChannel(layer string) string {
	return channelPrefix + layer + refreshSuffix
}

// LayerFromChannel extracts the layer from a refresh channel name.
func LayerFromChannel(channel string) (string, bool) {
	rest, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return "", false
	}
	layer, ok := strings.CutSuffix(rest, refreshSuffix)
	return layer, ok && layer != ""
}

// RefreshEvent is the payload of a refresh notification.
type RefreshEvent struct {
	Layer       string         `json:"layer"`
	RunID       string         `json:"run_id"`
	Rows        map[string]int `json:"rows"`
	PublishedAt time.Time      `json:"published_at"`
}

func (e RefreshEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func ParseRefreshEvent(payload string) (RefreshEvent, error) {
	var e RefreshEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return RefreshEvent{}, fmt.Errorf("parse refresh event: %w", err)
	}
	return e, nil
}

// RunRecord is one run history entry.
type RunRecord struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	RecordErrors int    `json:"record_errors"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
}

func (r RunRecord) values() map[string]any {
	return map[string]any{
		"run_id":        r.RunID,
		"status":        r.Status,
		"error":         r.Error,
		"record_errors": r.RecordErrors,
		"started_at":    r.StartedAt,
		"finished_at":   r.FinishedAt,
	}
}

func runRecordFrom(msg redis.XMessage) RunRecord {
	str := func(k string) string {
		if v, ok := msg.Values[k].(string); ok {
			return v
		}
		return ""
	}
	var n int
	_, _ = fmt.Sscan(str("record_errors"), &n)
	return RunRecord{
		ID:           msg.ID,
		RunID:        str("run_id"),
		Status:       str("status"),
		Error:        str("error"),
		RecordErrors: n,
		StartedAt:    str("started_at"),
		FinishedAt:   str("finished_at"),
	}
}

// AddRun appends r to the run history.
func (c *Client) AddRun(ctx context.Context, r RunRecord) string {
	return c.XAdd(ctx, RunStream, r.values())
}

// Runs returns the newest runs first.
func (c *Client) Runs(ctx context.Context, limit int64) ([]RunRecord, error) {
	msgs, err := c.XRevRange(ctx, RunStream, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunRecord, len(msgs))
	for i, m := range msgs {
		out[i] = runRecordFrom(m)
	}
	return out, nil
}
