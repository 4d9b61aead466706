package config

import (
	"sort"

	"kvload/internal/command"
)

// StandardPreset は10ワーカー×10000コマンドの標準負荷を返す
func StandardPreset() Config {
	return Default()
}

// LightPreset は動作確認用の軽量設定を返す
// ワーカーごとに10コマンドだけ発行する
func LightPreset() Config {
	c := Default()
	c.Iterations = 10
	return c
}

// EdgePreset はフレーミング境界を試すキー空間の設定を返す
// 空文字と空白のみのキーを含む
func EdgePreset() Config {
	c := Default()
	c.Iterations = 100
	c.Keys = command.KeySpace{"key1", "", " ", "  ", "\t", "key2"}
	return c
}

// SinglePreset は1ワーカーだけの設定を返す
func SinglePreset() Config {
	c := Default()
	c.Workers = 1
	return c
}

// PresetInfo はプリセットの説明
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var presets = map[string]struct {
	build       func() Config
	description string
}{
	"standard": {StandardPreset, "10 workers x 10000 commands (99% get / 1% set)"},
	"light":    {LightPreset, "10 workers x 10 commands, quick smoke run"},
	"edge":     {EdgePreset, "empty and whitespace-only keys to probe framing"},
	"single":   {SinglePreset, "one worker x 10000 commands"},
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	p, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	return p.build(), true
}

// ListPresets はプリセット名の一覧を返す
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Presets はプリセットの説明一覧を返す
func Presets() []PresetInfo {
	out := make([]PresetInfo, 0, len(presets))
	for _, name := range ListPresets() {
		out = append(out, PresetInfo{Name: name, Description: presets[name].description})
	}
	return out
}
