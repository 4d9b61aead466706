package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"kvload/internal/config"
	"kvload/internal/events"
	"kvload/internal/harness"
	"kvload/internal/logger"
	"kvload/internal/metrics"

	"golang.org/x/net/websocket"
)

// Source は監視対象のワーカー集合
type Source interface {
	Workers() []harness.WorkerStatus
	Metrics() *metrics.Metrics
}

// Server は負荷実行の監視用HTTPサーバー
type Server struct {
	addr     string
	source   Source
	eventBus *events.Bus
	interval time.Duration

	mu        sync.RWMutex
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しい監視サーバーを作成する
func NewServer(addr string, source Source, bus *events.Bus) *Server {
	return &Server{
		addr:      addr,
		source:    source,
		eventBus:  bus,
		interval:  1 * time.Second,
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// SetInterval はステータス配信間隔を設定する
func (s *Server) SetInterval(d time.Duration) {
	s.interval = d
}

// Handler はルーティング済みのハンドラーを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/workers", s.handleWorkers)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/presets", s.handlePresets)

	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始し、ctxが終わるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go s.Broadcast(ctx)

	logger.Info("", "Monitor starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running        bool             `json:"running"`
	WorkerCount    int              `json:"worker_count"`
	RunningWorkers int              `json:"running_workers"`
	States         map[string]int   `json:"states"`
	Metrics        metrics.Snapshot `json:"metrics"`
}

// Status は現在のステータスを組み立てる
func (s *Server) Status() StatusResponse {
	workers := s.source.Workers()
	resp := StatusResponse{
		WorkerCount: len(workers),
		States:      make(map[string]int),
		Metrics:     s.source.Metrics().Snapshot(),
	}
	for _, w := range workers {
		resp.States[w.State]++
		if w.Running {
			resp.RunningWorkers++
		}
	}
	resp.Running = resp.RunningWorkers > 0
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.Status())
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.source.Workers())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.source.Metrics().Snapshot())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, config.Presets())
}

// Message はWebSocketで配信するメッセージ
type Message struct {
	Type   string          `json:"type"`
	Status *StatusResponse `json:"status,omitempty"`
	Event  *events.Event   `json:"event,omitempty"`
}

func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	status := s.Status()
	_ = websocket.JSON.Send(ws, Message{Type: "status", Status: &status})

	// 切断されるまで読み捨てる
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// ClientCount は接続中のWebSocketクライアント数を返す
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(msg Message) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(data))
	}
}

// Broadcast はイベントと定期ステータスをWebSocketクライアントへ配信する
// ctxが終わるかイベントバスが閉じられるまでブロックする
func (s *Server) Broadcast(ctx context.Context) {
	var eventCh <-chan events.Event
	if s.eventBus != nil {
		eventCh = s.eventBus.Subscribe()
		defer s.eventBus.Unsubscribe(eventCh)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			s.broadcast(Message{Type: "event", Event: &ev})
		case <-ticker.C:
			status := s.Status()
			s.broadcast(Message{Type: "status", Status: &status})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
