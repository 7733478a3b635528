package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/facecoach/internal/analysis"
	"github.com/yoockh/facecoach/internal/services"
	"github.com/yoockh/facecoach/internal/utils"
)

// FrameWorkerPool drains landmark frames and probability vectors published to
// a Redis stream and feeds them into the owning session's engine. Live
// feedback is fanned out over pub/sub at most once per second per session.
type FrameWorkerPool struct {
	Redis    *redis.Client
	Sessions services.SessionService

	NumWorkers int
	Logger     *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	FeedbackInterval time.Duration

	mu        sync.Mutex
	published map[string]time.Time
}

func (p *FrameWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil {
		return errors.New("FrameWorkerPool missing dependency: Redis/Sessions must be set")
	}
	if p.Stream == "" {
		p.Stream = "frames:stream"
	}
	if p.Group == "" {
		p.Group = "frame-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.FeedbackInterval <= 0 {
		p.FeedbackInterval = time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	p.published = map[string]time.Time{}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *FrameWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    50,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *FrameWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	kind := getStr("kind")
	if sessionID == "" || kind == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
		"kind":       kind,
	})

	switch kind {
	case "frame":
		var frame analysis.LandmarkFrame
		if err := json.Unmarshal([]byte(getStr("payload")), &frame); err != nil {
			log.WithError(err).Warn("frame payload decode failed")
			return
		}
		if err := p.Sessions.ProcessFrame(sessionID, &frame); err != nil {
			if !utils.IsCode(err, utils.CodeNotFound) {
				log.WithError(err).Warn("frame rejected")
			}
			return
		}

	case "vector":
		t, err := strconv.ParseFloat(getStr("t"), 64)
		if err != nil {
			log.WithError(err).Warn("vector timestamp decode failed")
			return
		}
		var probs []float64
		if err := json.Unmarshal([]byte(getStr("probs")), &probs); err != nil {
			log.WithError(err).Warn("vector probs decode failed")
			return
		}
		if err := p.Sessions.AddVector(sessionID, t, probs); err != nil {
			if !utils.IsCode(err, utils.CodeNotFound) {
				log.WithError(err).Warn("vector rejected")
			}
			return
		}

	default:
		return
	}

	p.maybePublishFeedback(ctx, sessionID, log)
}

// maybePublishFeedback pushes the current live feedback to the session's
// pub/sub channel, throttled to one snapshot per FeedbackInterval.
func (p *FrameWorkerPool) maybePublishFeedback(ctx context.Context, sessionID string, log *logrus.Entry) {
	now := time.Now()

	p.mu.Lock()
	last, seen := p.published[sessionID]
	if seen && now.Sub(last) < p.FeedbackInterval {
		p.mu.Unlock()
		return
	}
	p.published[sessionID] = now
	p.mu.Unlock()

	fb, err := p.Sessions.LiveFeedback(sessionID, nil)
	if err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type":     "live_feedback",
		"feedback": fb,
	})
	if err != nil {
		return
	}
	ch := "session:" + sessionID + ":feedback"
	if err := p.Redis.Publish(ctx, ch, string(payload)).Err(); err != nil {
		log.WithError(err).Warn("feedback publish failed")
	}
}
