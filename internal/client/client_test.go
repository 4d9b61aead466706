package client

import (
	"bufio"
	"context"
	"errors"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kvload/internal/command"
	"kvload/internal/events"
	"kvload/internal/metrics"
	"kvload/internal/results"
	"kvload/internal/transport"
)

// okServer は各行に "OK\n" を返すテスト用サーバー
type okServer struct {
	ln        net.Listener
	dropFirst bool
	accepted  atomic.Int32

	mu    sync.Mutex
	lines []string
}

func newOKServer(t *testing.T, dropFirst bool) *okServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &okServer{ln: ln, dropFirst: dropFirst}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			n := s.accepted.Add(1)
			go s.handle(conn, s.dropFirst && n == 1)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *okServer) handle(conn net.Conn, drop bool) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil || drop {
			return
		}
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()
		if _, err := conn.Write([]byte("OK\n")); err != nil {
			return
		}
	}
}

func (s *okServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// scriptedRand は事前に決めた値を順に返す乱数源
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (s *scriptedRand) Intn(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func testConfig(addr string, iterations int) Config {
	config := DefaultConfig()
	config.ID = 1
	config.Addr = addr
	config.Iterations = iterations
	config.Backoff = 10 * time.Millisecond
	return config
}

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Addr != "127.0.0.1:12345" {
		t.Errorf("expected default addr 127.0.0.1:12345, got %s", config.Addr)
	}
	if config.Iterations != 10000 {
		t.Errorf("expected Iterations 10000, got %d", config.Iterations)
	}
	if config.Backoff != time.Second {
		t.Errorf("expected Backoff 1s, got %v", config.Backoff)
	}
	if len(config.Keys) == 0 {
		t.Error("expected non-empty default keyspace")
	}
}

func TestNewClient(t *testing.T) {
	dir, _ := results.NewDir(t.TempDir())
	c := New(DefaultConfig(), dir)

	if c.IsRunning() {
		t.Error("expected client to not be running initially")
	}
	if c.State().String() != "disconnected" {
		t.Errorf("expected disconnected, got %s", c.State())
	}
}

func TestClientScriptedRun(t *testing.T) {
	srv := newOKServer(t, false)
	path := t.TempDir()
	dir, _ := results.NewDir(path)

	config := testConfig(srv.ln.Addr().String(), 3)
	config.ID = 4
	config.Keys = command.KeySpace{"key1", "key2"}

	c := New(config, dir)
	c.SetRand(&scriptedRand{
		ints:   []int{0, 1, 41, 0},
		floats: []float64{0.1, 0.995, 0.5},
	})

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.GetCount != 2 || res.SetCount != 1 {
		t.Errorf("expected get 2 / set 1, got get %d / set %d", res.GetCount, res.SetCount)
	}

	expected := []string{"get key1\n", "set key2=value42\n", "get key1\n"}
	got := srv.received()
	if len(got) != len(expected) {
		t.Fatalf("expected %d lines, got %q", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], got[i])
		}
	}

	data, err := os.ReadFile(filepath.Join(path, "client_4.log"))
	if err != nil {
		t.Fatalf("failed to read result file: %v", err)
	}
	if string(data) != "get_count: 2\nset_count: 1\n" {
		t.Errorf("unexpected result file: %q", data)
	}
}

func TestClientCountsMatchIterations(t *testing.T) {
	srv := newOKServer(t, false)
	dir, _ := results.NewDir(t.TempDir())

	config := testConfig(srv.ln.Addr().String(), 500)
	config.Seed = 12345

	m := metrics.New()
	c := New(config, dir)
	c.SetMetrics(m)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Total() != 500 {
		t.Errorf("expected 500 commands counted, got %d", res.Total())
	}
	if len(srv.received()) != 500 {
		t.Errorf("expected server to receive 500 lines, got %d", len(srv.received()))
	}
	if m.TotalOps() != 500 {
		t.Errorf("expected metrics to record 500 ops, got %d", m.TotalOps())
	}
	if m.Snapshot().CompletedWorkers != 1 {
		t.Error("expected worker completion to be recorded")
	}
}

func TestClientRetriesSameCommand(t *testing.T) {
	srv := newOKServer(t, true)
	dir, _ := results.NewDir(t.TempDir())

	config := testConfig(srv.ln.Addr().String(), 5)
	config.Seed = 7

	bus := events.NewBus()
	ch := bus.Subscribe()

	c := New(config, dir)
	c.SetEventBus(bus)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Total() != 5 {
		t.Errorf("expected 5 commands counted, got %d", res.Total())
	}

	// 切断された最初のコマンドが再接続後にそのまま再送されていること
	expected := command.NewGenerator(config.Keys, rand.New(rand.NewSource(config.Seed))).Next()
	got := srv.received()
	if len(got) != 5 {
		t.Fatalf("expected 5 confirmed lines, got %d", len(got))
	}
	if got[0] != string(expected.Wire()) {
		t.Errorf("expected first confirmed command %q, got %q", expected.Wire(), got[0])
	}
	if srv.accepted.Load() != 2 {
		t.Errorf("expected 2 connections, got %d", srv.accepted.Load())
	}

	var ioFailures, completed int
	for len(ch) > 0 {
		switch (<-ch).Type {
		case events.EventIOFailed:
			ioFailures++
		case events.EventWorkerCompleted:
			completed++
		}
	}
	if ioFailures != 1 {
		t.Errorf("expected 1 io failure event, got %d", ioFailures)
	}
	if completed != 1 {
		t.Errorf("expected 1 completion event, got %d", completed)
	}
}

func TestClientContextCancelWhileServerDown(t *testing.T) {
	path := t.TempDir()
	dir, _ := results.NewDir(path)

	c := New(testConfig("127.0.0.1:1", 10), dir)
	c.SetDialer(func(_ context.Context, addr string) (*transport.Transport, error) {
		return nil, &transport.ConnectError{Addr: addr, Err: errors.New("connection refused")}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(path, results.FileName(1))); !os.IsNotExist(err) {
		t.Error("expected no result file for an unfinished worker")
	}
	if c.IsRunning() {
		t.Error("expected client to not be running after Run returns")
	}
}

func TestClientRateLimit(t *testing.T) {
	srv := newOKServer(t, false)
	dir, _ := results.NewDir(t.TempDir())

	config := testConfig(srv.ln.Addr().String(), 5)
	config.Rate = 100

	c := New(config, dir)
	start := time.Now()
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// burst 1, 100/s なので5件で少なくとも約40ms
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected rate limiting to slow the run, took %v", elapsed)
	}
}

type failingSink struct{}

func (failingSink) Write(results.WorkerResult) error {
	return errors.New("disk full")
}

func TestClientSinkFailure(t *testing.T) {
	srv := newOKServer(t, false)

	c := New(testConfig(srv.ln.Addr().String(), 2), failingSink{})
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("expected sink failure to be returned")
	}
}
