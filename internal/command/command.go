package command

import (
	"errors"
	"strings"
)

// Op はコマンドの種類を表す
type Op int

const (
	OpGet Op = iota
	OpSet
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	default:
		return "unknown"
	}
}

// Command は1つのget/setコマンド
type Command struct {
	Op    Op
	Key   string
	Value string // OpSet のみ
}

// Get はGetコマンドを作成する
func Get(key string) Command {
	return Command{Op: OpGet, Key: key}
}

// Set はSetコマンドを作成する
func Set(key, value string) Command {
	return Command{Op: OpSet, Key: key, Value: value}
}

// Line は改行を含まないコマンド文字列を返す
func (c Command) Line() string {
	if c.Op == OpSet {
		return "set " + c.Key + "=" + c.Value
	}
	return "get " + c.Key
}

// Wire は送信用のフレーム済みバイト列を返す
func (c Command) Wire() []byte {
	return Frame(c.Line())
}

func (c Command) String() string {
	return c.Line()
}

// Frame は末尾の改行を取り除き、改行をちょうど1つ付与する
func Frame(line string) []byte {
	line = strings.TrimRight(line, "\n")
	b := make([]byte, 0, len(line)+1)
	b = append(b, line...)
	return append(b, '\n')
}

// ErrEmptyKeySpace は空のキー空間が渡されたことを示す
var ErrEmptyKeySpace = errors.New("keyspace must not be empty")

// KeySpace は候補キーの順序付き集合（起動後は読み取り専用）
//
// 空文字や空白のみのキーも許容する。フレーミングの境界を試すために使う。
type KeySpace []string

// Validate はキー空間が空でないことを確認する
func (k KeySpace) Validate() error {
	if len(k) == 0 {
		return ErrEmptyKeySpace
	}
	return nil
}

// DefaultKeySpace はデフォルトのキー空間を返す
func DefaultKeySpace() KeySpace {
	return KeySpace{"key1", "key2", "key3", "key4", "key5", "key6"}
}
