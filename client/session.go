package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
)

// Config holds the settings for a realtime session.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:3000.
	BaseURL string
	// Token is the access token presented during the websocket handshake
	// and on REST calls.
	Token string
	// OnPresence, when set, receives every presence snapshot.
	OnPresence func(users []string)
}

// Session is one live connection to the realtime channel. Incoming task
// events feed a local TaskList; outgoing mutations are emitted as frames
// after the corresponding REST call succeeded.
type Session struct {
	cfg  Config
	conn *websocket.Conn
	list *TaskList

	writeMu sync.Mutex
	done    chan struct{}
}

// Dial connects to the realtime channel and starts the read loop.
func Dial(cfg Config) (*Session, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	wsURL := strings.Replace(cfg.BaseURL, "http", "ws", 1) + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("handshake rejected: unauthorized")
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	s := &Session{
		cfg:  cfg,
		conn: conn,
		list: NewTaskList(),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// TaskList returns the session's local replica.
func (s *Session) TaskList() *TaskList {
	return s.list
}

// Bootstrap fetches the current task set over REST and replaces the local
// state with it.
func (s *Session) Bootstrap() error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.cfg.BaseURL + "/api/v1/tasks")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	if err := fasthttp.Do(req, resp); err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("fetch tasks: unexpected status %d", resp.StatusCode())
	}

	var payload struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return fmt.Errorf("failed to decode task list: %w", err)
	}

	s.list.Bootstrap(payload.Tasks)
	return nil
}

// EmitTaskCreated announces a created task to the other clients.
func (s *Session) EmitTaskCreated(t domain.Task) error {
	return s.emit(events.TaskCreated, t)
}

// EmitTaskUpdated announces an updated task to the other clients.
func (s *Session) EmitTaskUpdated(t domain.Task) error {
	return s.emit(events.TaskUpdated, t)
}

// EmitTaskDeleted announces a deleted task id to the other clients.
func (s *Session) EmitTaskDeleted(id string) error {
	return s.emit(events.TaskDeleted, id)
}

// AnnouncePresence publishes the given identity as online on this
// connection.
func (s *Session) AnnouncePresence(userID string) error {
	return s.emit(events.PresenceAnnounce, userID)
}

// Close tears down the connection and waits for the read loop to exit.
func (s *Session) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Session) emit(event string, payload any) error {
	frame, err := events.Encode(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// readLoop applies incoming frames until the connection closes. Frames the
// list rejects are logged and skipped; a bad frame never kills the session.
func (s *Session) readLoop() {
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[client] Read error: %v", err)
			}
			return
		}

		env, err := events.Decode(data)
		if err != nil {
			log.Printf("[client] Dropping malformed frame: %v", err)
			continue
		}

		switch env.Event {
		case events.TaskCreated, events.TaskUpdated, events.TaskDeleted:
			if err := s.list.Apply(env); err != nil {
				log.Printf("[client] Dropping invalid %s frame: %v", env.Event, err)
			}
		case events.PresenceSnapshot:
			users, err := env.Users()
			if err != nil {
				log.Printf("[client] Dropping invalid presence snapshot: %v", err)
				continue
			}
			if s.cfg.OnPresence != nil {
				s.cfg.OnPresence(users)
			}
		case events.Error:
			var message string
			_ = json.Unmarshal(env.Payload, &message)
			log.Printf("[client] Server error: %s", message)
		default:
			log.Printf("[client] Ignoring unknown event: %s", env.Event)
		}
	}
}
