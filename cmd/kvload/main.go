// Package main is the entry point for kvload.
package main

import (
	"errors"
	"fmt"
	"os"

	"kvload/internal/config"
	"kvload/internal/logger"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) {
			logger.Error("", "設定エラー: %v", err)
		} else {
			logger.Error("", "%v", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kvload",
		Short: "Load generator and fragmentation probe for a line-oriented KV server",
		Long: `kvload - Load generator for a line-oriented TCP key-value server

Runs concurrent workers that issue "get <key>" / "set <key>=<value>" commands
(99% get / 1% set), reconnecting forever while the server is unavailable, and
writes per-worker counts to <log-dir>/client_<id>.log.`,
		Example: `  # 10ワーカー × 10000コマンド
  kvload run

  # 軽量プリセットで監視サーバー付き
  kvload run --preset light --monitor :8080

  # ワーカー3だけ実行
  kvload client 3

  # 断片化プローブ
  kvload fragment --delay 200ms

  # 結果の集計
  kvload summary --log-dir ./logs`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "設定ファイルパス (YAML/JSON)")
	f.String("preset", "", "プリセット名 (standard, light, edge, single)")
	f.String("host", "", "接続先ホスト")
	f.Int("port", 0, "接続先ポート")
	f.String("log-dir", "", "結果ファイルの出力先ディレクトリ")
	f.String("log-level", "", "ログレベル (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(),
		newClientCmd(),
		newFragmentCmd(),
		newSummaryCmd(),
		newPresetsCmd(),
	)
	return root
}

// loadConfig はプリセット・設定ファイル・フラグから設定を解決する
//
// 優先順位はデフォルト < プリセット < ファイル < 明示的に指定されたフラグ。
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	preset, _ := flags.GetString("preset")

	cfg, err := config.Resolve(preset, path)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("log-dir") {
		cfg.LogDir, _ = flags.GetString("log-dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	// サブコマンド固有のフラグ
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("rate") {
		cfg.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("backoff") {
		cfg.Backoff, _ = flags.GetDuration("backoff")
	}
	if flags.Changed("delay") {
		cfg.FragmentDelay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("monitor") {
		cfg.MonitorAddr, _ = flags.GetString("monitor")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Default.SetLevel(level)

	return cfg, nil
}

func addLoadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("iterations", 0, "ワーカーごとのコマンド数")
	f.Float64("rate", 0, "ワーカーごとの最大コマンド数/秒 (0で無制限)")
	f.Int64("seed", 0, "乱数シード (0で時刻から生成)")
	f.Duration("backoff", 0, "接続失敗後の待機時間 (例: 1s)")
}

func printHeader(title string, cfg config.Config) {
	fmt.Println(title)
	fmt.Println("====================================================")
	fmt.Printf("Target: %s\n", cfg.Addr())
	fmt.Printf("Workers: %d, Iterations: %d, Keys: %d\n", cfg.Workers, cfg.Iterations, len(cfg.Keys))
	fmt.Printf("Log dir: %s\n", cfg.LogDir)
	fmt.Println("====================================================")
	fmt.Println()
}
