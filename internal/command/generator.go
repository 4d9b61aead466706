package command

import (
	"strconv"
)

const (
	// GetRatio はGetコマンドが選ばれる確率
	GetRatio = 0.99
	// MaxValue はSet値の数値部分の上限（1〜MaxValue）
	MaxValue = 1000
)

// Rand はジェネレータが消費する乱数源
//
// *math/rand.Rand はこれを満たす。
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Next はキー空間と乱数源から次のコマンドを生成する
//
// 乱数の消費順はキー選択、Get/Set判定、Set値の順。
func Next(keys KeySpace, rng Rand) Command {
	key := keys[rng.Intn(len(keys))]
	if rng.Float64() < GetRatio {
		return Get(key)
	}
	return Set(key, "value"+strconv.Itoa(rng.Intn(MaxValue)+1))
}

// Generator は固定のキー空間と乱数源を持つコマンド生成器
//
// ワーカーごとに1つ持つ。並行利用は想定しない。
type Generator struct {
	keys KeySpace
	rng  Rand
}

// NewGenerator は新しいGeneratorを作成する
func NewGenerator(keys KeySpace, rng Rand) *Generator {
	return &Generator{keys: keys, rng: rng}
}

// Next は次のコマンドを返す
func (g *Generator) Next() Command {
	return Next(g.keys, g.rng)
}
