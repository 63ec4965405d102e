package server

import (
	"encoding/json"
	"net/http"

	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/render"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// batch is the element updates of one session frame.
type batch struct {
	BuyerID string
	Updates []render.EleUpdate
}

type subscription struct {
	client  *Client
	session string
}

// -----------------------------------------------------------------------------
// Frame pipeline
// -----------------------------------------------------------------------------

// frameConverter returns the function run by the conversion stage. It keeps one FrameView per
// session so each batch only appends messages not sent before; it runs on a single goroutine.
func (s *ViewerServer) frameConverter() func(models.MSessionFrame) batch {
	views := make(map[string]*render.FrameView)
	return func(frame models.MSessionFrame) batch {
		view, ok := views[frame.BuyerID]
		if !ok {
			view = s.Renderer.NewFrameView()
			views[frame.BuyerID] = view
		}
		updates := view.Convert(frame)
		if frame.Stage == models.StageComplete {
			delete(views, frame.BuyerID)
		}
		return batch{BuyerID: frame.BuyerID, Updates: updates}
	}
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *ViewerServer) handleWebsockets(batches <-chan batch) {
	for {
		select {
		case <-s.done:
			s.closeClients()
			return

		case client := <-s.register:
			s.attach(client, client.session)
			s.connections.Add(1)

		case sub := <-s.subscribe:
			if s.detach(sub.client) {
				s.attach(sub.client, sub.session)
			}

		case client := <-s.unregister:
			if s.detach(client) {
				close(client.send)
				s.connections.Add(-1)
			}

		case b, ok := <-batches:
			if !ok {
				s.closeClients()
				return
			}
			for client := range s.clients[b.BuyerID] {
				select {
				case client.send <- b.Updates:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.detach(client)
					close(client.send)
					s.connections.Add(-1)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// closeClients ends the write pump of every client still attached.
func (s *ViewerServer) closeClients() {
	for _, set := range s.clients {
		for client := range set {
			close(client.send)
			s.connections.Add(-1)
		}
	}
	s.clients = make(map[string]map[*Client]struct{})
}

// -----------------------------------------------------------------------------

// attach adds client to a session and sends it the whole session state.
func (s *ViewerServer) attach(client *Client, session string) {
	client.session = session
	if s.clients[session] == nil {
		s.clients[session] = make(map[*Client]struct{})
	}
	s.clients[session][client] = struct{}{}

	controller, err := s.Sessions.Get(session)
	if err != nil {
		s.Logger.Debug("Websocket client watches unknown session %s", session)
		return
	}
	select {
	case client.send <- s.Renderer.Updates(controller.Snapshot(), 0):
	default:
	}
}

// detach removes client from its session and reports whether it was attached.
func (s *ViewerServer) detach(client *Client) bool {
	set, ok := s.clients[client.session]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(s.clients, client.session)
	}
	return true
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// OnFrame queues a session frame for the websocket clients. It blocks while the queue is full
// so no frame is lost, and returns at once after Stop.
func (s *ViewerServer) OnFrame(frame models.MSessionFrame) {
	select {
	case s.frames <- frame:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) handleWebSocket(c *gin.Context) {
	id := c.Query("session")
	if _, err := s.Sessions.Get(id); err != nil {
		s.respondError(c, err, "websocket")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:     s,
		conn:    conn,
		session: id,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan []render.EleUpdate, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage moves a client to another session on {"command":"subscribe","session":id}.
func (s *ViewerServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" || cmd.Session == "" {
		return
	}
	if _, err := s.Sessions.Get(cmd.Session); err != nil {
		s.Logger.Debug("Ignoring subscription to %s: %v", cmd.Session, err)
		return
	}

	select {
	case s.subscribe <- subscription{client: client, session: cmd.Session}:
	case <-s.done:
	}
}
