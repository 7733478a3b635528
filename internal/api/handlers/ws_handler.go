package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/yoockh/facecoach/internal/analysis"
	"github.com/yoockh/facecoach/internal/services"
	"github.com/yoockh/facecoach/internal/utils"
)

type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	stream   string
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client, stream string) *WSHandler {
	if stream == "" {
		stream = "frames:stream"
	}
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		stream:   stream,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"`

	// type == "frame"
	Frame *analysis.LandmarkFrame `json:"frame,omitempty"`

	// type == "vector"
	T     float64   `json:"t,omitempty"`
	Probs []float64 `json:"probs,omitempty"`

	// end_session -> no fields
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// SessionWS is the live capture channel: the client pushes landmark frames
// and probability vectors in, and receives throttled live feedback published
// by the frame workers on the session's pub/sub channel.
func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	// authorize session ownership
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.SessionWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe Redis -> WS
	feedbackCh := "session:" + sessionID + ":feedback"
	statusCh := "session:" + sessionID + ":status"
	pubsub := h.redis.Subscribe(ctx, feedbackCh, statusCh)
	defer pubsub.Close()

	// reader: WS -> Redis Stream
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "frame":
				if msg.Frame == nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"frame is required"}`))
					continue
				}
				payload, _ := json.Marshal(msg.Frame)
				if err := h.redis.XAdd(ctx, &redis.XAddArgs{
					Stream: h.stream,
					Values: map[string]any{
						"session_id": sessionID,
						"kind":       "frame",
						"payload":    string(payload),
						"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
					},
				}).Err(); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"failed to enqueue frame"}`))
					continue
				}

			case "vector":
				if len(msg.Probs) == 0 {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"probs is required"}`))
					continue
				}
				probs, _ := json.Marshal(msg.Probs)
				if err := h.redis.XAdd(ctx, &redis.XAddArgs{
					Stream: h.stream,
					Values: map[string]any{
						"session_id": sessionID,
						"kind":       "vector",
						"t":          strconv.FormatFloat(msg.T, 'f', -1, 64),
						"probs":      string(probs),
						"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
					},
				}).Err(); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"failed to enqueue vector"}`))
					continue
				}

			case "end_session":
				result, serr := h.sessions.Stop(ctx, sessionID)
				if serr != nil {
					if utils.IsCode(serr, utils.CodeNotFound) {
						_ = wc.writeText([]byte(`{"type":"stopped","status":"no_data"}`))
					} else {
						_ = wc.writeText([]byte(`{"type":"error","code":"INTERNAL","message":"failed to stop session"}`))
					}
					return
				}
				h.redis.Publish(ctx, statusCh, `{"type":"status","status":"ended"}`)
				payload, _ := json.Marshal(map[string]any{
					"type":   "stopped",
					"result": result,
				})
				_ = wc.writeText(payload)
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (workers publish JSON)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
