package fragment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"kvload/internal/events"
	"kvload/internal/logger"
	"kvload/internal/transport"
	"kvload/internal/worker"
)

// Plan は1つのコマンドを分割したバイト片の並び
//
// 連結するとちょうど1行（末尾に改行1つ）になる。
type Plan [][]byte

// NewPlan は文字列の断片からPlanを作成する
func NewPlan(fragments ...string) Plan {
	p := make(Plan, len(fragments))
	for i, f := range fragments {
		p[i] = []byte(f)
	}
	return p
}

// Bytes は全断片を連結したものを返す
func (p Plan) Bytes() []byte {
	return bytes.Join(p, nil)
}

// Name はログ用に改行を除いたコマンド文字列を返す
func (p Plan) Name() string {
	return strings.TrimRight(string(p.Bytes()), "\n")
}

// ErrInvalidPlan は断片の連結が1行にならないことを示す
var ErrInvalidPlan = errors.New("fragments must join into exactly one newline-terminated line")

// Validate は断片の連結がちょうど1行になることを確認する
func (p Plan) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no fragments", ErrInvalidPlan)
	}
	b := p.Bytes()
	if len(b) == 0 || b[len(b)-1] != '\n' || bytes.Count(b, []byte("\n")) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, b)
	}
	return nil
}

// DefaultPlans はデフォルトのプローブ集合を返す
func DefaultPlans() []Plan {
	return []Plan{
		NewPlan("get ", "key1\n"),
		NewPlan("set ", "key2=value", "123\n"),
		NewPlan("set ke", "y3=value", "456\n"),
		NewPlan("get ke", "y4\n"),
	}
}

// Config はTesterの設定
type Config struct {
	Addr  string        // 接続先 host:port
	Delay time.Duration // 断片間の待機時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:  "127.0.0.1:12345",
		Delay: 100 * time.Millisecond,
	}
}

// Result は1つのプローブの結果
type Result struct {
	ID       int    `json:"id"`
	Command  string `json:"command"`
	Response string `json:"response,omitempty"`
	Err      error  `json:"-"`
}

// Tester は断片化したコマンドをサーバーに送るプローブを実行する
type Tester struct {
	config   Config
	out      io.Writer
	eventBus *events.Bus
}

// New は新しいTesterを作成する
func New(config Config) *Tester {
	return &Tester{
		config: config,
		out:    os.Stdout,
	}
}

// SetOutput は応答の出力先を設定する
func (t *Tester) SetOutput(w io.Writer) {
	t.out = w
}

// SetEventBus はイベントバスを設定する
func (t *Tester) SetEventBus(bus *events.Bus) {
	t.eventBus = bus
}

// Probe は1本の接続で断片を順に送り、応答を1つ受け取って閉じる
func (t *Tester) Probe(ctx context.Context, plan Plan) (string, error) {
	conn, err := transport.Dial(ctx, t.config.Addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	for i, frag := range plan {
		if i > 0 {
			if err := sleepContext(ctx, t.config.Delay); err != nil {
				return "", err
			}
		}
		if err := conn.SendRaw(frag); err != nil {
			return "", err
		}
	}

	return conn.RecvResponse()
}

// Run は全プローブを並行に実行し、全て終わるまで待つ
//
// 結果はplansと同じ順に並ぶ。個々のプローブの失敗はResult.Errに入る。
func (t *Tester) Run(ctx context.Context, plans []Plan) []Result {
	out := make([]Result, len(plans))
	if len(plans) == 0 {
		return out
	}

	var mu sync.Mutex // 出力行が混ざらないように
	pool := worker.NewPool(len(plans))
	pool.Start(ctx)

	for i, plan := range plans {
		i, plan := i, plan
		label := fmt.Sprintf("probe-%d", i)
		pool.Submit(func(ctx context.Context) {
			res := Result{ID: i, Command: plan.Name()}
			res.Response, res.Err = t.Probe(ctx, plan)
			out[i] = res

			if res.Err != nil {
				logger.Warn(label, "Connection error: %v", res.Err)
			} else {
				logger.Info(label, "%q -> %q", res.Command, strings.TrimSpace(res.Response))
				mu.Lock()
				fmt.Fprintf(t.out, "Response: %s\n", strings.TrimSpace(res.Response))
				mu.Unlock()
			}
			t.eventBus.Publish(events.NewProbeCompletedEvent(i, res.Command, res.Response, res.Err))
		})
	}
	pool.Wait()

	return out
}

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
