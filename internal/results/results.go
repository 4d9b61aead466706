package results

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// WorkerResult は1ワーカーの実行結果（完了後は不変）
type WorkerResult struct {
	WorkerID int    `json:"worker_id"`
	GetCount uint64 `json:"get_count"`
	SetCount uint64 `json:"set_count"`
}

// Total は成功した操作の総数を返す
func (r WorkerResult) Total() uint64 {
	return r.GetCount + r.SetCount
}

// Sink はワーカー結果の書き込み先
type Sink interface {
	Write(r WorkerResult) error
}

// Dir はディレクトリにワーカーごとのファイルを書くSink
type Dir struct {
	path string
}

var _ Sink = (*Dir)(nil)

// NewDir は結果ディレクトリを作成し、Dirを返す
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create result directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path はディレクトリのパスを返す
func (d *Dir) Path() string {
	return d.path
}

// FileName はワーカーIDに対応するファイル名を返す
func FileName(workerID int) string {
	return fmt.Sprintf("client_%d.log", workerID)
}

// Write は結果をファイルに書き込む（既存のファイルは上書き）
func (d *Dir) Write(r WorkerResult) error {
	path := filepath.Join(d.path, FileName(r.WorkerID))
	if err := os.WriteFile(path, Encode(r), 0o644); err != nil {
		return fmt.Errorf("failed to write result for worker %d: %w", r.WorkerID, err)
	}
	return nil
}

// Encode は結果をファイル形式にエンコードする
func Encode(r WorkerResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "get_count: %d\n", r.GetCount)
	fmt.Fprintf(&b, "set_count: %d\n", r.SetCount)
	return b.Bytes()
}

// ErrMalformed は結果ファイルの形式が不正であることを示す
var ErrMalformed = errors.New("malformed result file")

// Decode はファイル内容を結果にデコードする
func Decode(workerID int, data []byte) (WorkerResult, error) {
	r := WorkerResult{WorkerID: workerID}
	var seenGet, seenSet bool

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return r, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return r, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		switch strings.TrimSpace(name) {
		case "get_count":
			r.GetCount, seenGet = n, true
		case "set_count":
			r.SetCount, seenSet = n, true
		default:
			return r, fmt.Errorf("%w: unknown field %q", ErrMalformed, name)
		}
	}
	if err := sc.Err(); err != nil {
		return r, err
	}
	if !seenGet || !seenSet {
		return r, fmt.Errorf("%w: missing counts", ErrMalformed)
	}
	return r, nil
}

var fileNamePattern = regexp.MustCompile(`^client_(\d+)\.log$`)

// ReadDir はディレクトリ内の全結果ファイルを読み込む（ワーカーID順）
func ReadDir(path string) ([]WorkerResult, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result directory: %w", err)
	}

	var out []WorkerResult
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		r, err := Decode(id, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].WorkerID < out[j].WorkerID
	})
	return out, nil
}

// Summary は複数ワーカーの合計
type Summary struct {
	Workers  int    `json:"workers"`
	GetCount uint64 `json:"get_count"`
	SetCount uint64 `json:"set_count"`
}

// Summarize は結果を合計する
func Summarize(rs []WorkerResult) Summary {
	s := Summary{Workers: len(rs)}
	for _, r := range rs {
		s.GetCount += r.GetCount
		s.SetCount += r.SetCount
	}
	return s
}

// Report は結果をフォーマットして返す
func Report(rs []WorkerResult) string {
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "  %-12s get_count: %-8d set_count: %d\n", fmt.Sprintf("client_%d", r.WorkerID), r.GetCount, r.SetCount)
	}
	s := Summarize(rs)
	fmt.Fprintf(&b, "  %-12s get_count: %-8d set_count: %d\n", "total", s.GetCount, s.SetCount)
	return b.String()
}
