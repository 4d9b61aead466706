package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"kvload/internal/command"
	"kvload/internal/events"
	"kvload/internal/logger"
	"kvload/internal/metrics"
	"kvload/internal/transport"
)

// State は接続状態を表す
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrClosed はクローズ済みのセッションを使ったことを示す
var ErrClosed = errors.New("session is closed")

// DialFunc は接続を確立する関数
type DialFunc func(ctx context.Context, addr string) (*transport.Transport, error)

// Config はSessionの設定
type Config struct {
	ID      int           // ワーカーID
	Addr    string        // 接続先 host:port
	Backoff time.Duration // 接続失敗後の待機時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:    "127.0.0.1:12345",
		Backoff: 1 * time.Second,
	}
}

// Session は再接続付きの1本の接続を管理する
//
// 1つのワーカーが専有する。State以外のメソッドは並行に呼ばない。
type Session struct {
	config   Config
	label    string
	dial     DialFunc
	sleep    func(ctx context.Context, d time.Duration) error
	metrics  *metrics.Metrics
	eventBus *events.Bus

	state     atomic.Int32
	conn      *transport.Transport
	attempts  int
	connected bool // 一度でも接続できたか
	waiting   bool // "waiting for server" を出力済みか
	cooldown  bool // 送受信失敗の直後で、再接続前に待機が必要か
	closed    bool
}

// New は新しいSessionを作成する
func New(config Config) *Session {
	return &Session{
		config:  config,
		label:   fmt.Sprintf("client-%d", config.ID),
		dial:    transport.Dial,
		sleep:   sleepContext,
		metrics: metrics.New(),
	}
}

// SetEventBus はイベントバスを設定する
func (s *Session) SetEventBus(bus *events.Bus) {
	s.eventBus = bus
}

// SetMetrics は集計先のメトリクスを設定する
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetDialer は接続関数を差し替える
func (s *Session) SetDialer(dial DialFunc) {
	s.dial = dial
}

// State は現在の状態を返す
func (s *Session) State() State {
	return State(s.state.Load())
}

// Attempts はこれまでの接続試行回数を返す
func (s *Session) Attempts() int {
	return s.attempts
}

func (s *Session) setState(state State) {
	if State(s.state.Swap(int32(state))) == state {
		return
	}
	logger.Debug(s.label, "session state: %s", state)
	s.eventBus.Publish(events.NewStateChangeEvent(s.config.ID, state.String()))
}

// EnsureConnected は接続済みのTransportが得られるまでブロックする
//
// 接続に失敗するたびにBackoffだけ待って再試行する。回数の上限はない。
// ctx がキャンセルされた場合のみエラーを返す。
func (s *Session) EnsureConnected(ctx context.Context) (*transport.Transport, error) {
	for {
		if s.closed {
			return nil, ErrClosed
		}
		if s.conn != nil {
			return s.conn, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.waiting {
			logger.Info(s.label, "waiting for server")
			s.waiting = true
		}

		if s.cooldown {
			s.cooldown = false
			if err := s.sleep(ctx, s.config.Backoff); err != nil {
				return nil, err
			}
		}

		s.setState(StateConnecting)
		s.attempts++
		t, err := s.dial(ctx, s.config.Addr)
		if err != nil {
			s.setState(StateDisconnected)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			s.metrics.RecordConnectFailure()
			s.eventBus.Publish(events.NewConnectFailedEvent(s.config.ID, s.attempts, err))
			logger.Debug(s.label, "connect attempt %d failed: %v", s.attempts, err)

			if err := s.sleep(ctx, s.config.Backoff); err != nil {
				return nil, err
			}
			continue
		}

		s.conn = t
		s.waiting = false
		s.metrics.RecordConnect(s.connected)
		s.connected = true
		logger.Info(s.label, "connected to server")
		s.setState(StateConnected)
		return t, nil
	}
}

// Execute はコマンドを送信し、応答を1つ受信する
//
// 送受信に失敗した場合はTransportを破棄してDisconnectedに戻り、IoErrorを返す。
// 次の接続試行の前にBackoffだけ待つ。コマンドの再送は呼び出し側が判断する。
func (s *Session) Execute(ctx context.Context, cmd command.Command) (string, error) {
	t, err := s.EnsureConnected(ctx)
	if err != nil {
		return "", err
	}

	if err := t.SendCommand(cmd); err != nil {
		s.fail(err)
		return "", err
	}

	resp, err := t.RecvResponse()
	if err != nil {
		s.fail(err)
		return "", err
	}
	return resp, nil
}

// fail は接続中の失敗を処理し、Disconnectedに遷移する
func (s *Session) fail(err error) {
	s.setState(StateFailed)
	s.metrics.RecordIOFailure()
	s.eventBus.Publish(events.NewIOFailedEvent(s.config.ID, err))
	logger.Warn(s.label, "Connection failed. Reconnecting... (%v)", err)

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.cooldown = true
	s.setState(StateDisconnected)
}

// Close は接続を閉じ、以降の再接続を止める
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.setState(StateDisconnected)
	return err
}

// sleepContext は d だけ待つ。ctx がキャンセルされたら即座に戻る
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
