package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/imagejob"
	"github.com/satriahrh/lingua/internal/jobs"
	"github.com/satriahrh/lingua/internal/metrics"
	"github.com/satriahrh/lingua/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 << 20

	// Upper bound for one streamed audio turn.
	maxStreamedAudio = usecase.MaxUploadBytes

	turnTimeout = 90 * time.Second
)

// Turner runs one chat turn
type Turner interface {
	Turn(ctx context.Context, req usecase.TurnRequest) (*usecase.TurnResponse, error)
}

// contentTyper is implemented by TTS engines that know their audio format
type contentTyper interface {
	ContentType() string
}

// Hub maintains the set of active clients and routes job notifications to them.
type Hub struct {
	// Registered clients by user id.
	clients map[string]map[*Client]struct{}

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	chat    Turner
	tts     repositories.TextToSpeech
	metrics *metrics.Metrics
	origins map[string]bool

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// HubOptions configures optional hub features
type HubOptions struct {
	// TTS enables spoken replies. Nil disables them.
	TTS repositories.TextToSpeech
	// Metrics is optional.
	Metrics *metrics.Metrics
	// AllowedOrigins restricts browser origins. Empty allows any.
	AllowedOrigins []string
}

// NewHub creates a new WebSocket hub
func NewHub(chat Turner, opts HubOptions, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		chat:       chat,
		tts:        opts.TTS,
		metrics:    opts.Metrics,
		origins:    make(map[string]bool),
		logger:     logger,
	}
	for _, o := range opts.AllowedOrigins {
		h.origins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 || h.origins["*"] {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || h.origins[origin]
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WebsocketClients.Inc()
			}
			h.logger.Info("Client registered", zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.userID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					client.close()
					if h.metrics != nil {
						h.metrics.WebsocketClients.Dec()
					}
				}
				if len(set) == 0 {
					delete(h.clients, client.userID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("userID", client.userID))

		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					client.close()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount returns the number of connected clients for a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyJob is a jobs.Manager listener that pushes finished image jobs to
// the owning user's connections.
func (h *Hub) NotifyJob(event jobs.Event) {
	if event.Job.Kind != imagejob.Kind {
		return
	}
	switch event.Type {
	case jobs.EventJobStarted, jobs.EventJobSucceeded, jobs.EventJobFailed:
	default:
		return
	}

	status := repositories.ImageJobStatus{ID: event.Job.ID, Status: event.Job.Status, Error: event.Job.Error}
	if event.Type == jobs.EventJobSucceeded {
		status.URL = event.Job.Result
	}
	h.SendToUser(event.Job.Labels[imagejob.LabelUserID], &ImageStatusMessage{
		BaseMessage:    newBase(MessageTypeImageStatus),
		ConversationID: event.Job.Labels[imagejob.LabelConversationID],
		ImageJobStatus: status,
	})
}

// SendToUser sends a JSON message to every connection of a user
func (h *Hub) SendToUser(userID string, msg any) int {
	if userID == "" {
		return 0
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for client := range h.clients[userID] {
		if client.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload}) {
			sent++
		}
	}
	return sent
}

// WriteData is a single outbound frame
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	sendMu sync.Mutex
	closed bool

	// User ID for this client
	userID string

	logger *zap.Logger

	// Audio streaming state between listening_start and listening_end
	mutex     sync.Mutex
	listening *ListeningMessage
	audio     bytes.Buffer

	// ctx is cancelled when the connection goes away.
	ctx    context.Context
	cancel context.CancelFunc
}

// HandleWebSocket upgrades the request for an authenticated user
func HandleWebSocket(hub *Hub, c echo.Context, userID string) error {
	conn, err := hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		userID: userID,
		logger: hub.logger.With(zap.String("userID", userID)),
		ctx:    ctx,
		cancel: cancel,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// enqueue queues a frame unless the client is closed or too slow
func (c *Client) enqueue(data WriteData) bool {
	ok, full := c.tryEnqueue(data)
	if full {
		c.logger.Warn("Dropping message for slow client")
	}
	return ok
}

func (c *Client) tryEnqueue(data WriteData) (ok, full bool) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false, false
	}
	select {
	case c.send <- data:
		return true, false
	default:
		return false, true
	}
}

// enqueueWait retries a full queue until ctx is done. Audio frames use it
// so a burst of chunks is not dropped.
func (c *Client) enqueueWait(ctx context.Context, data WriteData) bool {
	for {
		ok, full := c.tryEnqueue(data)
		if ok || !full {
			return ok
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	close(c.send)
}

func (c *Client) sendJSON(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming text frames
func (c *Client) processMessage(raw []byte) {
	parsed, err := ParseMessage(raw)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendJSON(CreateErrorMessage(ErrorCodeInvalidMessage, err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *ChatMessage:
		req, err := msg.TurnRequest(c.userID)
		if err != nil {
			c.sendJSON(CreateErrorMessage(ErrorCodeInvalidMessage, err.Error()))
			return
		}
		go c.runTurn(req, msg.MessageID, msg.Voice)
	case *ListeningMessage:
		if msg.Type == MessageTypeListeningStart {
			c.handleListeningStart(msg)
		} else {
			c.handleListeningEnd(msg)
		}
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))
	}
}

// processBinaryAudioChunk appends audio to the open listening stream
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.listening == nil {
		c.logger.Warn("Received binary audio chunk but no listening stream is open")
		c.sendJSON(CreateErrorMessage(ErrorCodeInvalidMessage, "send listening_start before audio"))
		return
	}
	if c.audio.Len()+len(data) > maxStreamedAudio {
		c.logger.Warn("Streamed audio too large, dropping stream", zap.Int("size", c.audio.Len()+len(data)))
		c.listening = nil
		c.audio.Reset()
		c.sendJSON(CreateErrorMessage(ErrorCodeInvalidInput, "audio stream too large"))
		return
	}
	c.audio.Write(data)
}

func (c *Client) handleListeningStart(msg *ListeningMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.listening = msg
	c.audio.Reset()
	c.logger.Debug("Listening started", zap.String("conversationID", msg.ConversationID))
}

func (c *Client) handleListeningEnd(msg *ListeningMessage) {
	c.mutex.Lock()
	start := c.listening
	audio := append([]byte(nil), c.audio.Bytes()...)
	c.listening = nil
	c.audio.Reset()
	c.mutex.Unlock()

	if start == nil {
		c.sendJSON(CreateErrorMessage(ErrorCodeInvalidMessage, "no listening stream is open"))
		return
	}

	conversationID := start.ConversationID
	if msg.ConversationID != "" {
		conversationID = msg.ConversationID
	}
	req := usecase.TurnRequest{
		UserID:         c.userID,
		ConversationID: conversationID,
		Language:       start.Language,
		Audio:          &usecase.Upload{Filename: "stream", Data: audio},
	}
	go c.runTurn(req, msg.MessageID, start.Voice || msg.Voice)
}

// runTurn executes a chat turn and streams the reply back
func (c *Client) runTurn(req usecase.TurnRequest, messageID string, voice bool) {
	ctx, cancel := context.WithTimeout(c.ctx, turnTimeout)
	defer cancel()

	resp, err := c.hub.chat.Turn(ctx, req)
	if err != nil {
		c.logger.Warn("Chat turn failed", zap.String("conversationID", req.ConversationID), zap.Error(err))
		reply := CreateErrorMessageFor(err)
		reply.MessageID = messageID
		c.sendJSON(reply)
		return
	}

	base := newBase(MessageTypeChatResponse)
	base.MessageID = messageID
	c.sendJSON(&ChatResponseMessage{BaseMessage: base, TurnResponse: resp})

	if voice && c.hub.tts != nil {
		c.speak(ctx, resp)
	}
}

// speak streams the spoken reply as binary frames between speaking_start
// and speaking_end.
func (c *Client) speak(ctx context.Context, resp *usecase.TurnResponse) {
	chunks, err := c.hub.tts.ConvertTextToSpeech(ctx, resp.Response, resp.Language)
	if err != nil {
		c.logger.Error("Failed to convert text to speech",
			zap.String("conversationID", resp.ConversationID),
			zap.Error(err))
		return
	}

	start := &SpeakingMessage{BaseMessage: newBase(MessageTypeSpeakingStart), ConversationID: resp.ConversationID}
	if ct, ok := c.hub.tts.(contentTyper); ok {
		start.ContentType = ct.ContentType()
	}
	c.sendJSON(start)

	total := 0
	for chunk := range chunks {
		if !c.enqueueWait(ctx, WriteData{Type: websocket.BinaryMessage, Payload: chunk}) {
			break
		}
		total += len(chunk)
	}

	c.sendJSON(&SpeakingMessage{
		BaseMessage:    newBase(MessageTypeSpeakingEnd),
		ConversationID: resp.ConversationID,
		Bytes:          total,
	})
}
