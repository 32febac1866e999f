package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is a declarative list of markets to track, loaded from YAML and
// used to seed a store.
type Catalog struct {
	Markets []CatalogMarket `yaml:"markets"`
}

type CatalogMarket struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Categories  []CatalogCategory   `yaml:"categories"`
	Competitors []CatalogCompetitor `yaml:"competitors"`
}

type CatalogCategory struct {
	Name        string   `yaml:"name"`
	RankingURLs []string `yaml:"ranking_urls"`
}

type CatalogCompetitor struct {
	Name        string   `yaml:"name"`
	URL         string   `yaml:"url"`
	ProductURLs []string `yaml:"product_urls"`
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read catalog %q: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML and rejects unnamed entries.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse catalog: %w", err)
	}

	for i, m := range c.Markets {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("config: catalog market %d has no name", i)
		}
		for j, cat := range m.Categories {
			if strings.TrimSpace(cat.Name) == "" {
				return nil, fmt.Errorf("config: market %q category %d has no name", m.Name, j)
			}
		}
		for j, comp := range m.Competitors {
			if strings.TrimSpace(comp.Name) == "" {
				return nil, fmt.Errorf("config: market %q competitor %d has no name", m.Name, j)
			}
		}
	}
	return &c, nil
}
