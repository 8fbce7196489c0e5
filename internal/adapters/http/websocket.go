package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
)

// wsMessage is sent by the client. Action is "select" or "export"; the
// remaining fields describe the selection (missing fields take defaults).
type wsMessage struct {
	Action    string `json:"action"`
	Pollutant string `json:"pollutant"`
	Year      *int   `json:"year"`
	Month     *int   `json:"month"`
}

// wsReply is sent to the client. Type is "session", "analysis", "export" or
// "error".
type wsReply struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WebSocketHandler returns a handler where one socket is one session. Each
// "select" supersedes the previous one still computing; only the latest
// selection's analysis is sent back. "export" queues an export and replies
// with the ticket; it is never cancelled by later selections.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session := uuid.NewString()
		logger := slog.Default().With("session_id", session, "remote", c.RemoteAddr().String())
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		defer func() {
			cancel()
			if deps.Dispatcher != nil {
				deps.Dispatcher.Close(session)
			}
			wg.Wait()
			logger.Info("ws client disconnected")
		}()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeErr := func(err error) {
			_, code := classify(err)
			_ = writeJSON(wsReply{Type: "error", Code: code, Message: err.Error()})
		}

		_ = writeJSON(wsReply{Type: "session", Session: session})

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsReply{Type: "error", Code: "bad_request", Message: "invalid JSON"})
				continue
			}
			sel := selectionRequest{Pollutant: m.Pollutant, Year: m.Year, Month: m.Month}.toSelection()

			switch m.Action {
			case "select":
				if deps.Dispatcher == nil {
					writeErr(errors.New("analysis not available"))
					continue
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					a, err := deps.Dispatcher.OnSelectionChanged(ctx, session, sel)
					switch {
					case errors.Is(err, domain.ErrSuperseded), errors.Is(err, context.Canceled):
						// A newer selection or the disconnect took over.
					case err != nil:
						logger.Warn("ws analysis failed", "selection", sel.String(), "error", err)
						writeErr(err)
					default:
						_ = writeJSON(wsReply{Type: "analysis", Data: a})
					}
				}()

			case "export":
				if deps.Exports == nil {
					writeErr(errExportsUnavailable)
					continue
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					// Detached from the socket: submission completes even if
					// the client goes away.
					subCtx, subCancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
					defer subCancel()
					ticket, err := deps.Exports.Submit(subCtx, sel)
					if err != nil {
						writeErr(err)
						return
					}
					_ = writeJSON(wsReply{Type: "export", Data: ticket})
				}()

			default:
				_ = writeJSON(wsReply{Type: "error", Code: "bad_request", Message: "unknown action: " + m.Action})
			}
		}
	}
}
