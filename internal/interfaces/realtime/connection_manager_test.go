package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

// detachedConnection is a session without a socket, for exercising fan-out.
func detachedConnection(cm *ConnectionManager, id string, buffer int) *Connection {
	conn := &Connection{
		ID:      id,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		manager: cm,
		cancel:  func() {},
	}
	cm.mu.Lock()
	cm.all[conn] = struct{}{}
	cm.mu.Unlock()
	return conn
}

func drain(conn *Connection) []string {
	var out []string
	for {
		select {
		case frame := <-conn.send:
			out = append(out, string(frame))
		default:
			return out
		}
	}
}

func notes(teamID string, kinds ...notification.Kind) []notification.Notification {
	out := make([]notification.Notification, 0, len(kinds))
	for i, kind := range kinds {
		out = append(out, notification.Notification{
			ID:     string(rune('a' + i)),
			Kind:   kind,
			TeamID: teamID,
			At:     time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		})
	}
	return out
}

func TestConnectionManager_PublishOnlyReachesTeamSubscribers(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	alpha := detachedConnection(cm, "c1", 8)
	beta := detachedConnection(cm, "c2", 8)
	cm.Subscribe(alpha, "alpha")
	cm.Subscribe(beta, "beta")

	cm.Publish(context.Background(), "alpha", notes("alpha", notification.KindMatchDateChanged, notification.KindPredictionsCleared))

	got := drain(alpha)
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if !strings.Contains(got[0], `"type":"MatchDateChanged"`) || !strings.Contains(got[1], `"type":"PredictionsCleared"`) {
		t.Fatalf("frames out of order: %v", got)
	}
	if other := drain(beta); len(other) != 0 {
		t.Fatalf("other team received frames: %v", other)
	}
}

func TestConnectionManager_SubscribeMovesBetweenTeams(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	conn := detachedConnection(cm, "c1", 8)

	cm.Subscribe(conn, "alpha")
	cm.Subscribe(conn, "beta")

	if cm.Subscribers("alpha") != 0 || cm.Subscribers("beta") != 1 {
		t.Fatalf("unexpected subscribers alpha=%d beta=%d", cm.Subscribers("alpha"), cm.Subscribers("beta"))
	}
	if conn.TeamID() != "beta" {
		t.Fatalf("unexpected team: %s", conn.TeamID())
	}

	cm.Unsubscribe(conn)
	if cm.Subscribers("beta") != 0 || conn.TeamID() != "" {
		t.Fatalf("unsubscribe left state behind")
	}
}

func TestConnectionManager_ClosesSlowConnections(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	slow := detachedConnection(cm, "slow", 1)
	fast := detachedConnection(cm, "fast", 8)
	cm.Subscribe(slow, "alpha")
	cm.Subscribe(fast, "alpha")

	cm.Deliver("alpha", [][]byte{[]byte("1"), []byte("2"), []byte("3")})

	if cm.Subscribers("alpha") != 1 || cm.ConnectionCount() != 1 {
		t.Fatalf("slow connection should be dropped, subscribers=%d connections=%d", cm.Subscribers("alpha"), cm.ConnectionCount())
	}
	if got := drain(fast); len(got) != 3 {
		t.Fatalf("fast connection missed frames: %v", got)
	}
	if slow.Send([]byte("late")) {
		t.Fatalf("closed connection accepted a frame")
	}
}

type recordingRelay struct {
	mu     sync.Mutex
	teams  []string
	frames int
	err    error
}

func (r *recordingRelay) Publish(_ context.Context, teamID string, frames [][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams = append(r.teams, teamID)
	r.frames += len(frames)
	return r.err
}

func TestConnectionManager_PublishUsesRelay(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	conn := detachedConnection(cm, "c1", 8)
	cm.Subscribe(conn, "alpha")

	relay := &recordingRelay{}
	cm.SetRelay(relay)
	cm.Publish(context.Background(), "alpha", notes("alpha", notification.KindMemberCreated))

	if len(relay.teams) != 1 || relay.teams[0] != "alpha" || relay.frames != 1 {
		t.Fatalf("relay not used: %+v", relay)
	}
	if got := drain(conn); len(got) != 0 {
		t.Fatalf("relayed frames must arrive through the relay, got %v", got)
	}

	relay.err = errors.New("nats: connection closed")
	cm.Publish(context.Background(), "alpha", notes("alpha", notification.KindMemberCreated))
	if got := drain(conn); len(got) != 1 {
		t.Fatalf("expected local fallback delivery, got %v", got)
	}
}

func TestNATSRelay_HandleDeliversLocally(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	conn := detachedConnection(cm, "c1", 8)
	cm.Subscribe(conn, "alpha-1")

	relay := NewNATSRelay(nil, "", cm, logging.NewNop())
	data, err := sonic.Marshal(relayMessage{TeamID: "alpha-1", Frames: []string{`{"type":"MatchCreated"}`, `{"type":"MemberCreated"}`}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	relay.handle(&nats.Msg{Subject: DefaultSubjectPrefix + ".alpha-1", Data: data})
	relay.handle(&nats.Msg{Subject: DefaultSubjectPrefix + ".alpha-1", Data: []byte("not json")})

	got := drain(conn)
	if len(got) != 2 || got[0] != `{"type":"MatchCreated"}` {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestNATSRelay_Subject(t *testing.T) {
	relay := NewNATSRelay(nil, " team-schedule.events. ", nil, logging.NewNop())
	if got := relay.subject("alpha.1 >"); got != "team-schedule.events.alpha_1__" {
		t.Fatalf("unexpected subject: %s", got)
	}
}

func TestConnectionManager_UpgradeAndPublish(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{}, logging.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := cm.Upgrade(w, r, func(_ context.Context, conn *Connection) {
			cm.Subscribe(conn, "alpha")
		}, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
		}
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for cm.Subscribers("alpha") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cm.Publish(context.Background(), "alpha", notes("alpha", notification.KindTeamUpdated))

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got notification.Notification
	if err := sonic.Unmarshal(frame, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != notification.KindTeamUpdated || got.TeamID != "alpha" {
		t.Fatalf("unexpected frame: %s", frame)
	}

	_ = ws.Close()
	deadline = time.Now().Add(2 * time.Second)
	for cm.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("closed connection was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
