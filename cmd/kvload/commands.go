package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"kvload/internal/api"
	"kvload/internal/client"
	"kvload/internal/config"
	"kvload/internal/events"
	"kvload/internal/fragment"
	"kvload/internal/harness"
	"kvload/internal/metrics"
	"kvload/internal/results"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "全ワーカーを並行に実行し、全員の終了を待つ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runHarness(ctx, cfg)
		},
	}
	cmd.Flags().Int("workers", 0, "並行ワーカー数")
	addLoadFlags(cmd)
	cmd.Flags().String("monitor", "", "監視サーバーのアドレス (例: :8080)")
	return cmd
}

// runHarness はハーネスと（指定されていれば）監視サーバーを一緒に走らせる
func runHarness(ctx context.Context, cfg config.Config) error {
	printHeader("kvload - Load Harness", cfg)

	dir, err := results.NewDir(cfg.LogDir)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()

	h := harness.New(cfg.HarnessConfig(), dir)
	h.SetEventBus(bus)

	monCtx, monCancel := context.WithCancel(ctx)
	defer monCancel()

	g, gctx := errgroup.WithContext(monCtx)

	var rs []results.WorkerResult
	g.Go(func() error {
		defer monCancel()
		var err error
		rs, err = h.Run(gctx)
		return err
	})

	if cfg.MonitorAddr != "" {
		srv := api.NewServer(cfg.MonitorAddr, h, bus)
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	err = g.Wait()

	fmt.Println()
	fmt.Println("Results")
	fmt.Print(results.Report(rs))
	fmt.Println()
	printMetrics(h.Metrics().Snapshot())

	return err
}

func printMetrics(s metrics.Snapshot) {
	fmt.Println("Metrics")
	fmt.Printf("  connects: %d, reconnects: %d\n", s.Connects, s.Reconnects)
	fmt.Printf("  connect failures: %d, io failures: %d\n", s.ConnectFailures, s.IOFailures)
	fmt.Printf("  completed workers: %d, elapsed: %v\n", s.CompletedWorkers, s.Elapsed)
}

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client <id>",
		Short: "ワーカーを1つだけ実行する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkerID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runClient(ctx, cfg, id)
		},
	}
	addLoadFlags(cmd)
	return cmd
}

func parseWorkerID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, &config.Error{Field: "id", Reason: fmt.Sprintf("worker id must be a non-negative integer, got %q", s)}
	}
	return id, nil
}

func runClient(ctx context.Context, cfg config.Config, id int) error {
	cfg.Workers = 1
	printHeader(fmt.Sprintf("kvload - Client %d", id), cfg)

	dir, err := results.NewDir(cfg.LogDir)
	if err != nil {
		return err
	}

	cc := client.Config{
		ID:         id,
		Addr:       cfg.Addr(),
		Iterations: cfg.Iterations,
		Keys:       cfg.Keys,
		Backoff:    cfg.Backoff,
		Rate:       cfg.Rate,
	}
	if cfg.Seed != 0 {
		cc.Seed = cfg.Seed + int64(id)
	}

	m := metrics.New()
	c := client.New(cc, dir)
	c.SetMetrics(m)

	res, err := c.Run(ctx)

	fmt.Println()
	fmt.Print(results.Report([]results.WorkerResult{res}))
	fmt.Println()
	printMetrics(m.Snapshot())

	return err
}

func newFragmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "断片化したコマンドを送り、サーバーの再組み立てを確認する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runFragment(ctx, cfg)
		},
	}
	cmd.Flags().Duration("delay", 0, "断片間の待機時間 (例: 100ms)")
	return cmd
}

func runFragment(ctx context.Context, cfg config.Config) error {
	fmt.Println("kvload - Fragmentation Probe")
	fmt.Println("====================================================")
	fmt.Printf("Target: %s, Probes: %d, Delay: %v\n", cfg.Addr(), len(cfg.Probes), cfg.FragmentDelay)
	fmt.Println("====================================================")
	fmt.Println()

	t := fragment.New(cfg.FragmentConfig())
	t.SetOutput(os.Stdout)
	t.Run(ctx, cfg.Probes)

	// プローブの失敗は報告済みで、終了コードには影響しない
	return ctx.Err()
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "結果ファイルを読み込んで合計を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs, err := results.ReadDir(cfg.LogDir)
			if err != nil {
				return err
			}
			fmt.Printf("Results in %s (%d workers)\n", cfg.LogDir, len(rs))
			fmt.Print(results.Report(rs))
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "利用可能なプリセットを表示する",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "利用可能なプリセット:")
			fmt.Fprintln(out)
			for _, p := range config.Presets() {
				fmt.Fprintf(out, "  %-10s %s\n", p.Name, p.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "使用例: kvload run --preset light")
		},
	}
}
