package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"product-fairy-server/modules/generate"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// Client - run 이벤트를 구독하는 WebSocket 연결 1개
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// runChannel - run 1개의 구독자 집합
type runChannel struct {
	runID     string
	clients   map[*Client]bool
	mutex     sync.RWMutex
	createdAt time.Time
}

// Hub - run ID별 이벤트 브로드캐스트
// 큐 모드에서 백그라운드 worker가 방출하는 이벤트를
// 구독 중인 클라이언트에게 전달한다
type Hub struct {
	channels map[string]*runChannel
	mutex    sync.RWMutex
}

// NewHub - Hub 생성 + 빈 채널 정리 루틴 시작
func NewHub() *Hub {
	h := &Hub{
		channels: make(map[string]*runChannel),
	}
	go h.cleanupRoutine()
	return h
}

func (h *Hub) getOrCreateChannel(runID string) *runChannel {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	ch, exists := h.channels[runID]
	if !exists {
		ch = &runChannel{
			runID:     runID,
			clients:   make(map[*Client]bool),
			createdAt: time.Now(),
		}
		h.channels[runID] = ch
		log.Printf("✅ Created event channel for run: %s", runID)
	}
	return ch
}

// Broadcast - run의 모든 구독자에게 이벤트 전송
// 구독자가 없으면 조용히 버린다 (worker는 구독 여부와 무관하게 진행)
func (h *Hub) Broadcast(runID string, event generate.Event) {
	data, err := generate.EncodeEvent(event)
	if err != nil {
		log.Printf("⚠️  Failed to encode event for run %s: %v", runID, err)
		return
	}

	h.mutex.RLock()
	ch, exists := h.channels[runID]
	h.mutex.RUnlock()
	if !exists {
		return
	}

	ch.mutex.Lock()
	defer ch.mutex.Unlock()
	for client := range ch.clients {
		select {
		case client.send <- data:
		default:
			// 밀린 클라이언트는 끊는다
			close(client.send)
			delete(ch.clients, client)
		}
	}
}

// HandleWebSocket - /ws?run=<runId> 구독 핸들러
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "run parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	ch := h.getOrCreateChannel(runID)
	ch.mutex.Lock()
	ch.clients[client] = true
	count := len(ch.clients)
	ch.mutex.Unlock()

	log.Printf("👤 Client subscribed to run %s (subscribers: %d)", runID, count)

	go client.writePump()
	go client.readPump(ch)
}

// readPump - 클라이언트 연결 유지 + 종료 감지
// 구독 전용이라 들어오는 메시지는 버린다
func (c *Client) readPump(ch *runChannel) {
	defer func() {
		ch.mutex.Lock()
		if _, ok := ch.clients[c]; ok {
			close(c.send)
			delete(ch.clients, c)
		}
		remaining := len(ch.clients)
		ch.mutex.Unlock()
		c.conn.Close()
		log.Printf("👋 Client left run %s (remaining: %d)", ch.runID, remaining)
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump - 클라이언트로 이벤트 쓰기
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// cleanupRoutine - 구독자 없는 오래된 채널 정리
func (h *Hub) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		h.mutex.Lock()
		cleaned := 0
		for runID, ch := range h.channels {
			ch.mutex.RLock()
			empty := len(ch.clients) == 0 && time.Since(ch.createdAt) > 30*time.Minute
			ch.mutex.RUnlock()

			if empty {
				delete(h.channels, runID)
				cleaned++
			}
		}
		h.mutex.Unlock()

		if cleaned > 0 {
			log.Printf("🧹 Cleaned up %d empty run channels", cleaned)
		}
	}
}
