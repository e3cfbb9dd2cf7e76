package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type recordingListener struct {
	opened chan struct{}
	events chan Event
	closed chan error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		opened: make(chan struct{}, 1),
		events: make(chan Event, 16),
		closed: make(chan error, 2),
	}
}

func (l *recordingListener) OnOpen()           { l.opened <- struct{}{} }
func (l *recordingListener) OnEvent(e Event)   { l.events <- e }
func (l *recordingListener) OnClose(err error) { l.closed <- err }

// sessionServer upgrades every request and hands the server side of the
// connection to the test.
func sessionServer(t *testing.T) (*httptest.Server, <-chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, SessionPath) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		conns <- conn
	}))
	return server, conns
}

func dialTestServer(t *testing.T, server *httptest.Server, l Listener) Conn {
	t.Helper()
	url, err := Endpoint(server.URL, "abc")
	if err != nil {
		t.Fatalf("could not derive endpoint: %v", err)
	}
	return NewWebSocketDialer(nil).Dial(context.Background(), url, l)
}

func waitOpen(t *testing.T, l *recordingListener) {
	t.Helper()
	select {
	case <-l.opened:
	case err := <-l.closed:
		t.Fatalf("connection closed before opening: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for connection to open")
	}
}

func recvEvent(t *testing.T, l *recordingListener) Event {
	t.Helper()
	select {
	case e := <-l.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func recvClose(t *testing.T, l *recordingListener) error {
	t.Helper()
	select {
	case err := <-l.closed:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for close")
		return nil
	}
}

func TestConnSendsActionsAndDeliversEvents(t *testing.T) {
	server, conns := sessionServer(t)
	defer server.Close()

	l := newRecordingListener()
	c := dialTestServer(t, server, l)
	defer c.Close()
	waitOpen(t, l)
	serverConn := <-conns
	defer serverConn.Close()

	c.Send(JoinGame("p1", "en"))
	serverConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Action
	if err := serverConn.ReadJSON(&got); err != nil {
		t.Fatalf("server could not read action: %v", err)
	}
	if got.Action != ActionJoinGame || got.PlayerToken != "p1" || got.LanguageCode != "en" {
		t.Errorf("unexpected action %+v", got)
	}

	frames := []string{
		`{"action":"update_players","players":[{"id":1,"name":"Jan"}]}`,
		`this is not json`,
		`{"action":"game_updated"}`,
		`{"action":"new_question","question":{"id":7,"sequence":2,"game":{"token":"abc"}}}`,
	}
	for _, f := range frames {
		if err := serverConn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("server could not write frame: %v", err)
		}
	}

	if e, ok := recvEvent(t, l).(UpdatePlayers); !ok || len(e.Players) != 1 {
		t.Errorf("expected update_players with one player but got %#v", e)
	}
	if e, ok := recvEvent(t, l).(NewQuestion); !ok || e.Question.ID != 7 {
		t.Errorf("expected new_question 7 but got %#v", e)
	}
}

func TestConnReportsRemoteCloseOnce(t *testing.T) {
	server, conns := sessionServer(t)
	defer server.Close()

	l := newRecordingListener()
	c := dialTestServer(t, server, l)
	waitOpen(t, l)
	serverConn := <-conns
	serverConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	serverConn.Close()

	recvClose(t, l)

	// closing after the remote did must not report a second time
	c.Close()
	c.Close()
	select {
	case err := <-l.closed:
		t.Errorf("expected a single close notification but got another: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// sending on a closed connection is a no-op
	c.Send(StartGame("p1"))
}

func TestConnExplicitClose(t *testing.T) {
	server, conns := sessionServer(t)
	defer server.Close()

	l := newRecordingListener()
	c := dialTestServer(t, server, l)
	waitOpen(t, l)
	serverConn := <-conns
	defer serverConn.Close()

	c.Close()
	if err := recvClose(t, l); err != ErrClosed {
		t.Errorf("expected ErrClosed but got %v", err)
	}

	serverConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := serverConn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected the server to see a normal close but got %v", err)
	}
}

func TestDialFailureIsReportedAsClose(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	l := newRecordingListener()
	c := dialTestServer(t, server, l)
	defer c.Close()

	if err := recvClose(t, l); err == nil {
		t.Errorf("expected a dial error")
	}
	select {
	case <-l.opened:
		t.Errorf("did not expect the connection to open")
	default:
	}

	c.Send(NextQuestion("p1"))
}

func TestConnIDsAreUnique(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	a := dialTestServer(t, server, newRecordingListener())
	b := dialTestServer(t, server, newRecordingListener())
	defer a.Close()
	defer b.Close()

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct connection ids but got %q and %q", a.ID(), b.ID())
	}
}
