package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"savingscircle/internal/domain"
)

const (
	relayChannelPrefix = "circle:group:"
	relayQueueSize     = 256
)

// DialRedis connects to the Redis server at url and checks it answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type relayMessage struct {
	Origin  string       `json:"origin"`
	GroupID string       `json:"group_id"`
	Event   domain.Event `json:"event"`
}

// RedisRelay shares published events between broker instances over Redis pub/sub,
// so viewers attached to any instance see every group's events.
type RedisRelay struct {
	client  *redis.Client
	origin  string
	out     chan relayMessage
	metrics *Metrics
	logger  *slog.Logger
}

func NewRedisRelay(client *redis.Client, metrics *Metrics, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		origin:  uuid.NewString(),
		out:     make(chan relayMessage, relayQueueSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Forward queues ev for the other instances. It drops ev when the queue is full.
func (r *RedisRelay) Forward(groupID string, ev domain.Event) {
	select {
	case r.out <- relayMessage{Origin: r.origin, GroupID: groupID, Event: ev}:
	default:
		r.logger.Warn("relay queue full, event not shared", "group_id", groupID, "type", ev.Type)
	}
}

// Run publishes forwarded events and delivers other instances' events to b until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, b *Broker) error {
	pubsub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to relay channels: %w", err)
	}
	in := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.out:
			payload, err := json.Marshal(msg)
			if err != nil {
				r.logger.Warn("relay encode failed", "group_id", msg.GroupID, "err", err)
				continue
			}
			if err := r.client.Publish(ctx, relayChannelPrefix+msg.GroupID, payload).Err(); err != nil {
				r.logger.Warn("relay publish failed", "group_id", msg.GroupID, "err", err)
				continue
			}
			r.metrics.relayed("out")
		case m, ok := <-in:
			if !ok {
				return errors.New("relay subscription closed")
			}
			r.handle(b, m.Channel, m.Payload)
		}
	}
}

// handle delivers one relayed message locally. Messages from this instance are skipped.
func (r *RedisRelay) handle(b *Broker, channel, payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn("relay decode failed", "channel", channel, "err", err)
		return
	}
	if msg.Origin == r.origin {
		return
	}
	groupID := strings.TrimPrefix(channel, relayChannelPrefix)
	if groupID != msg.GroupID {
		r.logger.Warn("relay channel mismatch", "channel", channel, "group_id", msg.GroupID)
		return
	}
	r.metrics.relayed("in")
	b.Deliver(groupID, msg.Event)
}
