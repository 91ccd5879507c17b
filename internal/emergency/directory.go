// Package emergency は国・地域別の緊急通報番号の検索を提供する。
package emergency

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed numbers.json
var numbersJSON []byte

// Numbers は緊急通報番号の組を表す。
type Numbers struct {
	Police    string `json:"police"`
	Fire      string `json:"fire"`
	Ambulance string `json:"ambulance"`
}

type countryEntry struct {
	Default Numbers            `json:"default"`
	Regions map[string]Numbers `json:"regions"`
}

type directoryData struct {
	Default   Numbers                 `json:"default"`
	Countries map[string]countryEntry `json:"countries"`
}

// Directory は埋め込みデータから構築する緊急通報番号の台帳。
// 実行時に変更されないため同時読み取りは安全。
type Directory struct {
	data directoryData
}

// NewDirectory は埋め込みの番号データを読み込んでDirectoryを生成する。
func NewDirectory() (*Directory, error) {
	var data directoryData
	if err := json.Unmarshal(numbersJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to parse embedded emergency numbers: %w", err)
	}
	return &Directory{data: data}, nil
}

// Lookup は国コード（ISO 3166-1 alpha-2）と地域名から緊急通報番号を返す。
// 地域→国→全体デフォルトの順でフォールバックする。
// 国コードの大文字小文字は区別しない。地域名は完全一致。
func (d *Directory) Lookup(countryCode, region string) Numbers {
	country, ok := d.data.Countries[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return d.data.Default
	}

	if region != "" {
		if numbers, ok := country.Regions[region]; ok {
			return numbers
		}
	}
	return country.Default
}
