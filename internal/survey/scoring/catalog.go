package scoring

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCatalog []byte

// Category 부담작업 항목
type Category struct {
	Number      int    `yaml:"number" json:"number"`
	Description string `yaml:"description" json:"description"`
}

// Label 항목 표기 ("3호")
func (c Category) Label() string {
	return CategoryLabel(c.Number)
}

// Catalog 부담작업 항목 및 작업부하/작업빈도 선택지
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	Workload   []string   `yaml:"workload" json:"workload"`
	Frequency  []string   `yaml:"frequency" json:"frequency"`
}

// LoadCatalog parses a catalog document and keeps the first count
// categories. count <= 0 keeps all of them.
func LoadCatalog(data []byte, count int) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, cat := range c.Categories {
		if cat.Number != i+1 {
			return nil, fmt.Errorf("catalog category %d out of order (got %d)", i+1, cat.Number)
		}
	}
	if count > len(c.Categories) {
		return nil, fmt.Errorf("catalog defines %d categories, %d requested", len(c.Categories), count)
	}
	if count > 0 {
		c.Categories = c.Categories[:count]
	}
	return &c, nil
}

// DefaultCatalog 내장 카탈로그
func DefaultCatalog(count int) (*Catalog, error) {
	return LoadCatalog(defaultCatalog, count)
}

// MustDefaultCatalog is DefaultCatalog for callers that pass a known-good count.
func MustDefaultCatalog(count int) *Catalog {
	c, err := DefaultCatalog(count)
	if err != nil {
		panic(err)
	}
	return c
}

// Count 항목 수
func (c *Catalog) Count() int {
	return len(c.Categories)
}

// Category 번호로 항목 조회
func (c *Catalog) Category(n int) (Category, bool) {
	if n < 1 || n > len(c.Categories) {
		return Category{}, false
	}
	return c.Categories[n-1], true
}
