package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kvload/internal/client"
	"kvload/internal/command"
	"kvload/internal/events"
	"kvload/internal/logger"
	"kvload/internal/metrics"
	"kvload/internal/results"
	"kvload/internal/session"
	"kvload/internal/worker"
)

// Config はHarnessの設定
type Config struct {
	Workers    int              // 同時に走らせるワーカー数
	Addr       string           // 接続先 host:port
	Iterations int              // ワーカーごとのコマンド数
	Keys       command.KeySpace // 全ワーカーで共有するキー空間
	Backoff    time.Duration    // 接続失敗後の待機時間
	Rate       float64          // ワーカーごとの1秒あたり最大コマンド数（0で無制限）
	Seed       int64            // ワーカー i のシードは Seed+i（0で時刻から生成）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Workers:    10,
		Addr:       "127.0.0.1:12345",
		Iterations: 10000,
		Keys:       command.DefaultKeySpace(),
		Backoff:    1 * time.Second,
	}
}

// WorkerStatus は監視用のワーカー状態
type WorkerStatus struct {
	ID      int    `json:"id"`
	State   string `json:"state"`
	Running bool   `json:"running"`
}

// Harness は複数のClientを並行に走らせ、全員の終了を待つ
type Harness struct {
	config   Config
	sink     results.Sink
	metrics  *metrics.Metrics
	eventBus *events.Bus

	// テスト用の接続関数差し替え
	dial session.DialFunc

	mu      sync.RWMutex
	clients []*client.Client
}

// New は新しいHarnessを作成する
func New(config Config, sink results.Sink) *Harness {
	return &Harness{
		config:  config,
		sink:    sink,
		metrics: metrics.New(),
	}
}

// SetEventBus はイベントバスを設定する
func (h *Harness) SetEventBus(bus *events.Bus) {
	h.eventBus = bus
}

// SetDialer は全ワーカーの接続関数を差し替える
func (h *Harness) SetDialer(dial session.DialFunc) {
	h.dial = dial
}

// Metrics は集計メトリクスを返す
func (h *Harness) Metrics() *metrics.Metrics {
	return h.metrics
}

// Workers は各ワーカーの現在の状態を返す
func (h *Harness) Workers() []WorkerStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]WorkerStatus, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, WorkerStatus{
			ID:      c.ID(),
			State:   c.State().String(),
			Running: c.IsRunning(),
		})
	}
	return out
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1")
	}
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if err := c.Keys.Validate(); err != nil {
		return err
	}
	return nil
}

// Run は全ワーカーを起動し、全員が終了するまでブロックする
//
// 結果はワーカーID順に並ぶ。完了できなかったワーカーの分は部分的な値になる。
// 返すエラーは各ワーカーのエラー（ctxのキャンセル、Sinkへの書き込み失敗）をまとめたもの。
func (h *Harness) Run(ctx context.Context) ([]results.WorkerResult, error) {
	if err := h.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harness config: %w", err)
	}

	n := h.config.Workers
	clients := make([]*client.Client, n)
	for i := 0; i < n; i++ {
		clients[i] = h.newClient(i)
	}

	h.mu.Lock()
	h.clients = clients
	h.mu.Unlock()

	logger.Info("", "Harness started (workers: %d, iterations: %d, target: %s)",
		n, h.config.Iterations, h.config.Addr)

	out := make([]results.WorkerResult, n)
	errs := make([]error, n)

	pool := worker.NewPool(n)
	pool.Start(ctx)
	for i, c := range clients {
		i, c := i, c
		pool.Submit(func(ctx context.Context) {
			res, err := c.Run(ctx)
			out[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("client %d: %w", i, err)
			}
		})
	}
	pool.Wait()

	snap := h.metrics.Snapshot()
	logger.Info("", "Harness finished (completed: %d/%d, get_count: %d, set_count: %d, reconnects: %d)",
		snap.CompletedWorkers, n, snap.Gets, snap.Sets, snap.Reconnects)

	err := errors.Join(errs...)
	if err == nil {
		// 開始前にキャンセルされたワーカーはエラーを返さない
		err = ctx.Err()
	}
	return out, err
}

func (h *Harness) newClient(id int) *client.Client {
	config := client.Config{
		ID:         id,
		Addr:       h.config.Addr,
		Iterations: h.config.Iterations,
		Keys:       h.config.Keys,
		Backoff:    h.config.Backoff,
		Rate:       h.config.Rate,
	}
	if h.config.Seed != 0 {
		config.Seed = h.config.Seed + int64(id)
	}

	c := client.New(config, h.sink)
	c.SetMetrics(h.metrics)
	c.SetEventBus(h.eventBus)
	if h.dial != nil {
		c.SetDialer(h.dial)
	}
	return c
}
