// Package client provides a single load-generating worker.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"kvload/internal/command"
	"kvload/internal/events"
	"kvload/internal/logger"
	"kvload/internal/metrics"
	"kvload/internal/results"
	"kvload/internal/session"
)

// Config はClientの設定
type Config struct {
	ID         int              // ワーカーID
	Addr       string           // 接続先 host:port
	Iterations int              // 実行するコマンド数
	Keys       command.KeySpace // キー空間（読み取り専用で共有）
	Backoff    time.Duration    // 接続失敗後の待機時間
	Rate       float64          // 1秒あたりの最大コマンド数（0で無制限）
	Seed       int64            // 乱数シード（0で時刻から生成）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:       "127.0.0.1:12345",
		Iterations: 10000,
		Keys:       command.DefaultKeySpace(),
		Backoff:    1 * time.Second,
	}
}

// ErrAlreadyRunning はRunが二重に呼ばれたことを示す
var ErrAlreadyRunning = errors.New("client is already running")

// Client は1本のセッションでコマンドを順に発行するワーカー
type Client struct {
	config   Config
	label    string
	session  *session.Session
	gen      *command.Generator
	limiter  *rate.Limiter
	sink     results.Sink
	metrics  *metrics.Metrics
	eventBus *events.Bus

	running atomic.Bool
}

// New は新しいClientを作成する
func New(config Config, sink results.Sink) *Client {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano() + int64(config.ID)
	}

	sess := session.New(session.Config{
		ID:      config.ID,
		Addr:    config.Addr,
		Backoff: config.Backoff,
	})

	c := &Client{
		config:  config,
		label:   fmt.Sprintf("client-%d", config.ID),
		session: sess,
		gen:     command.NewGenerator(config.Keys, rand.New(rand.NewSource(seed))),
		sink:    sink,
		metrics: metrics.New(),
	}
	if config.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	sess.SetMetrics(c.metrics)
	return c
}

// SetEventBus はイベントバスを設定する
func (c *Client) SetEventBus(bus *events.Bus) {
	c.eventBus = bus
	c.session.SetEventBus(bus)
}

// SetMetrics は集計先のメトリクスを設定する
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
	c.session.SetMetrics(m)
}

// SetRand は乱数源を差し替える
func (c *Client) SetRand(rng command.Rand) {
	c.gen = command.NewGenerator(c.config.Keys, rng)
}

// SetDialer はセッションの接続関数を差し替える
func (c *Client) SetDialer(dial session.DialFunc) {
	c.session.SetDialer(dial)
}

// ID はワーカーIDを返す
func (c *Client) ID() int {
	return c.config.ID
}

// State はセッションの接続状態を返す
func (c *Client) State() session.State {
	return c.session.State()
}

// IsRunning は実行中かどうかを返す
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// Run は設定された回数だけコマンドを発行し、結果をSinkに書き込む
//
// 成功が確認できたコマンドだけを数える。失敗したコマンドは再接続後に同じものを再実行する。
// エラーを返すのは ctx のキャンセルとSinkへの書き込み失敗のときだけ。
func (c *Client) Run(ctx context.Context) (results.WorkerResult, error) {
	res := results.WorkerResult{WorkerID: c.config.ID}

	if c.running.Swap(true) {
		return res, ErrAlreadyRunning
	}
	defer c.running.Store(false)
	defer func() { _ = c.session.Close() }()

	logger.Info(c.label, "Client started (iterations: %d, keys: %d)", c.config.Iterations, len(c.config.Keys))

	for i := 0; i < c.config.Iterations; i++ {
		cmd := c.gen.Next()

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return res, err
			}
		}

		resp, err := c.execute(ctx, cmd)
		if err != nil {
			return res, err
		}
		logger.Debug(c.label, "%s: %s", cmd, strings.TrimSpace(resp))

		switch cmd.Op {
		case command.OpGet:
			res.GetCount++
			c.metrics.RecordGet()
		case command.OpSet:
			res.SetCount++
			c.metrics.RecordSet()
		}
	}

	if err := c.sink.Write(res); err != nil {
		logger.Error(c.label, "failed to write result: %v", err)
		return res, err
	}

	c.metrics.RecordWorkerCompleted()
	c.eventBus.Publish(events.NewWorkerCompletedEvent(c.config.ID, res.GetCount, res.SetCount))
	logger.Info(c.label, "Client finished (get_count: %d, set_count: %d)", res.GetCount, res.SetCount)

	return res, nil
}

// execute は成功するまで同じコマンドを再実行する
func (c *Client) execute(ctx context.Context, cmd command.Command) (string, error) {
	for {
		resp, err := c.session.Execute(ctx, cmd)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, session.ErrClosed) {
			return "", err
		}
	}
}
