package controllers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/websocket"

	"savingscircle/internal/broker"
	"savingscircle/internal/domain"
)

// Subscriber attaches viewer connections to a group's channel.
type Subscriber interface {
	Subscribe(ctx context.Context, groupID string, conn broker.Conn) (*broker.Subscription, error)
}

// LiveController streams a group's lifecycle events over a WebSocket.
type LiveController struct {
	Logger    *slog.Logger
	Snapshots domain.SnapshotProvider
	Broker    Subscriber
}

func NewLiveController(logger *slog.Logger, snapshots domain.SnapshotProvider, b Subscriber) *LiveController {
	return &LiveController{
		Logger:    logger,
		Snapshots: snapshots,
		Broker:    b,
	}
}

// Live godoc
// @Summary Watch a group live
// @Description Upgrades to a WebSocket that carries the group's events as JSON frames. After a draw, the first frame is a catch_up with the full reveal sequence. The token may be passed as a query parameter. Members and admins only.
// @Tags groups
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param token query string false "Bearer token for clients that cannot set headers"
// @Success 101 "switching protocols"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/live [get]
func (c *LiveController) Live(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	snap, err := c.Snapshots.CurrentState(r.Context(), groupID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if !requireViewer(c.Logger, w, r, snap, actor) {
		return
	}
	websocket.Handler(func(ws *websocket.Conn) {
		c.serve(ws, groupID, actor)
	}).ServeHTTP(w, r)
}

func (c *LiveController) serve(ws *websocket.Conn, groupID string, actor domain.Actor) {
	defer ws.Close()
	ctx := ws.Request().Context()

	sub, err := c.Broker.Subscribe(ctx, groupID, &wsConn{ws: ws})
	if err != nil {
		c.Logger.WarnContext(ctx, "live subscribe failed", "group_id", groupID, "user_id", actor.UserID, "err", err)
		return
	}
	defer sub.Close()

	// Viewers never send frames; reading only detects the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, ws)
	}()

	select {
	case <-gone:
	case <-sub.Done():
		if err := sub.Err(); err != nil {
			c.Logger.InfoContext(ctx, "live viewer detached", "group_id", groupID, "user_id", actor.UserID, "err", err)
		}
	}
}

// wsConn writes events as JSON text frames. The broker's writer is its only caller.
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) WriteEvent(ctx context.Context, ev domain.Event) error {
	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return websocket.JSON.Send(c.ws, ev)
}
