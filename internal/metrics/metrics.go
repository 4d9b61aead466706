package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics はハーネス全体の操作カウンタを集計する
type Metrics struct {
	gets             atomic.Uint64
	sets             atomic.Uint64
	connectFailures  atomic.Uint64
	ioFailures       atomic.Uint64
	connects         atomic.Uint64
	reconnects       atomic.Uint64
	completedWorkers atomic.Uint64

	startTime time.Time
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordGet は成功したGetを記録する
func (m *Metrics) RecordGet() {
	m.gets.Add(1)
}

// RecordSet は成功したSetを記録する
func (m *Metrics) RecordSet() {
	m.sets.Add(1)
}

// RecordConnect は接続確立を記録する
// 同じセッションで2回目以降の接続は再接続として数える
func (m *Metrics) RecordConnect(reconnect bool) {
	m.connects.Add(1)
	if reconnect {
		m.reconnects.Add(1)
	}
}

// RecordConnectFailure は接続失敗を記録する
func (m *Metrics) RecordConnectFailure() {
	m.connectFailures.Add(1)
}

// RecordIOFailure は送受信の失敗を記録する
func (m *Metrics) RecordIOFailure() {
	m.ioFailures.Add(1)
}

// RecordWorkerCompleted はワーカーの完了を記録する
func (m *Metrics) RecordWorkerCompleted() {
	m.completedWorkers.Add(1)
}

// Gets は成功したGet数を返す
func (m *Metrics) Gets() uint64 {
	return m.gets.Load()
}

// Sets は成功したSet数を返す
func (m *Metrics) Sets() uint64 {
	return m.sets.Load()
}

// TotalOps は成功した操作の総数を返す
func (m *Metrics) TotalOps() uint64 {
	return m.gets.Load() + m.sets.Load()
}

// Reconnects は再接続回数を返す（初回接続を除く）
func (m *Metrics) Reconnects() uint64 {
	return m.reconnects.Load()
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	Gets             uint64        `json:"get_count"`
	Sets             uint64        `json:"set_count"`
	TotalOps         uint64        `json:"total_ops"`
	Connects         uint64        `json:"connects"`
	Reconnects       uint64        `json:"reconnects"`
	ConnectFailures  uint64        `json:"connect_failures"`
	IOFailures       uint64        `json:"io_failures"`
	CompletedWorkers uint64        `json:"completed_workers"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	gets := m.gets.Load()
	sets := m.sets.Load()
	return Snapshot{
		Gets:             gets,
		Sets:             sets,
		TotalOps:         gets + sets,
		Connects:         m.connects.Load(),
		Reconnects:       m.reconnects.Load(),
		ConnectFailures:  m.connectFailures.Load(),
		IOFailures:       m.ioFailures.Load(),
		CompletedWorkers: m.completedWorkers.Load(),
		Elapsed:          time.Since(m.startTime),
	}
}
