package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the marketplace being watched: how it labels star
// ratings, which brands count as majors, and which keyword variants to score.
type Profile struct {
	Name                string            `yaml:"name"`
	StarTokens          []string          `yaml:"star_tokens"`
	MajorBrands         []string          `yaml:"major_brands"`
	KeywordTemplates    []KeywordTemplate `yaml:"keyword_templates"`
	FallbackTargetPrice float64           `yaml:"fallback_target_price"`
	Currency            string            `yaml:"currency"`
}

// KeywordTemplate expands to "<category> <suffix>" with fixed demand figures.
type KeywordTemplate struct {
	Suffix     string  `yaml:"suffix"`
	Volume     float64 `yaml:"volume"`
	Difficulty float64 `yaml:"difficulty"`
}

const defaultProfileYAML = `
name: amazon-jp
currency: JPY
fallback_target_price: 2980
star_tokens:
  - star
  - つ星
major_brands:
  - Sony
  - Panasonic
  - Samsung
  - Anker
  - Apple
keyword_templates:
  - {suffix: small, volume: 5000, difficulty: 30}
  - {suffix: mute, volume: 3000, difficulty: 20}
  - {suffix: design, volume: 8000, difficulty: 80}
  - {suffix: professional, volume: 1500, difficulty: 10}
  - {suffix: cheap, volume: 20000, difficulty: 95}
`

// DefaultProfile returns the built-in Amazon Japan profile.
func DefaultProfile() *Profile {
	p, err := ParseProfile([]byte(defaultProfileYAML))
	if err != nil {
		panic(fmt.Sprintf("config: built-in profile is invalid: %v", err))
	}
	return p
}

// LoadProfile reads a profile from path, or returns the default when path is empty.
func LoadProfile(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile %q: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes YAML and fills unset fields from the defaults.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse profile: %w", err)
	}

	if len(p.StarTokens) == 0 {
		p.StarTokens = []string{"star", "つ星"}
	}
	if p.FallbackTargetPrice <= 0 {
		p.FallbackTargetPrice = 2980
	}
	if p.Currency == "" {
		p.Currency = "JPY"
	}
	for i, kt := range p.KeywordTemplates {
		if strings.TrimSpace(kt.Suffix) == "" {
			return nil, fmt.Errorf("config: keyword template %d has no suffix", i)
		}
	}
	return &p, nil
}
