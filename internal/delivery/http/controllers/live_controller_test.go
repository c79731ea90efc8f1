package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"savingscircle/internal/broker"
	"savingscircle/internal/delivery/http/middleware"
	"savingscircle/internal/domain"
)

type stubSnapshots struct {
	mu   sync.Mutex
	snap *domain.GroupSnapshot
}

func (s *stubSnapshots) CurrentState(_ context.Context, groupID string) (*domain.GroupSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || s.snap.Group.ID != groupID {
		return nil, domain.ErrNotFound
	}
	return s.snap, nil
}

func drawnGroup() *domain.GroupSnapshot {
	p1, p2 := 1, 2
	ms := []*domain.Membership{
		{GroupID: "g-1", MemberID: "m1", DisplayName: "Ana", Position: &p2},
		{GroupID: "g-1", MemberID: "m2", DisplayName: "Luis", Position: &p1},
	}
	g := &domain.Group{ID: "g-1", Duration: 2, State: domain.GroupStateRunning, CurrentTurn: 1}
	return &domain.GroupSnapshot{Group: g, Memberships: ms, Draw: domain.DrawResultFromMemberships(g, ms)}
}

// liveServer serves the live route with actor already authenticated.
func liveServer(t *testing.T, ctrl *LiveController, actor domain.Actor) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /groups/{groupID}/live", func(w http.ResponseWriter, r *http.Request) {
		ctrl.Live(w, r.WithContext(middleware.SetActor(r.Context(), actor)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialLive(t *testing.T, srv *httptest.Server, groupID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/groups/" + groupID + "/live"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.Event
	require.NoError(t, websocket.JSON.Receive(conn, &ev))
	return ev
}

func TestLiveController_CatchUpThenLive(t *testing.T) {
	snaps := &stubSnapshots{snap: drawnGroup()}
	b := broker.New(snaps, broker.Config{}, nil, discardLogger())
	t.Cleanup(b.Close)
	srv := liveServer(t, NewLiveController(discardLogger(), snaps, b), member)

	conn := dialLive(t, srv, "g-1")

	first := receive(t, conn)
	require.Equal(t, domain.EventCatchUp, first.Type)
	require.NotNil(t, first.CatchUp)
	assert.Equal(t, snaps.snap.Draw.Reveal(), first.CatchUp.Sequence)

	require.Eventually(t, func() bool { return b.Subscribers("g-1") == 1 }, time.Second, 5*time.Millisecond)
	b.Publish("g-1", domain.Event{Type: domain.EventTurnAdvanced, TurnAdvanced: &domain.TurnAdvanced{NewTurn: 2}})

	next := receive(t, conn)
	assert.Equal(t, domain.EventTurnAdvanced, next.Type)
	assert.Equal(t, "g-1", next.GroupID)
	assert.Greater(t, next.Seq, first.Seq)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return b.Subscribers("g-1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestLiveController_Rejections(t *testing.T) {
	snaps := &stubSnapshots{snap: drawnGroup()}
	b := broker.New(snaps, broker.Config{}, nil, discardLogger())
	t.Cleanup(b.Close)

	outsider := liveServer(t, NewLiveController(discardLogger(), snaps, b), domain.Actor{UserID: "stranger"})
	resp, err := http.Get(outsider.URL + "/groups/g-1/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(outsider.URL + "/groups/missing/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	adminSrv := liveServer(t, NewLiveController(discardLogger(), snaps, b), admin)
	conn := dialLive(t, adminSrv, "g-1")
	assert.Equal(t, domain.EventCatchUp, receive(t, conn).Type)
}
