package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"kvload/internal/logger"
)

// Job はワーカーが実行するジョブを表す
type Job func(ctx context.Context)

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers  int // 並行実行数（0でCPU数）
	QueueFactor int // キューサイズ = NumWorkers * QueueFactor
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:  0,
		QueueFactor: 1,
	}
}

// Pool はゴルーチンのプールを管理する
//
// NumWorkers をジョブ数と同じにすると、各ジョブが独立したゴルーチンで同時に走る。
type Pool struct {
	numWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	closed     bool
	stopping   atomic.Bool
	completed  atomic.Int64
	mu         sync.Mutex
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*queueFactor),
	}
}

// Start はワーカープールを起動する
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	logger.Debug("", "WorkerPool started with %d workers", p.numWorkers)
}

// worker は個々のワーカーゴルーチン
// キューが閉じられるまでジョブを取り出して実行する
func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			continue
		}
		job(p.ctx)
		p.completed.Add(1)
	}
}

// Submit はジョブをプールに送信する
// キューに空きがなければブロックする
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.closed || p.stopping.Load() {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait は新規ジョブの受付を締め切り、投入済みの全ジョブの終了を待つ
func (p *Pool) Wait() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	logger.Debug("", "WorkerPool drained (%d jobs completed)", p.completed.Load())
}

// Stop はコンテキストをキャンセルし、実行中のジョブの終了を待つ
// 未着手のジョブは実行されない
func (p *Pool) Stop() {
	p.stopping.Store(true)

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}

	p.cancel()
	p.Wait()
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Completed は実行を終えたジョブ数を返す
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
