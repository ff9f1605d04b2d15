// Package scoring implements mission alignment analysis, partnership ROI
// estimation, and the weighted ranking engine.
package scoring

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/partner-finder/internal/logger"
)

// MissionKeywords holds the three keyword tiers used for alignment matching.
// Primary keywords carry full weight, secondary 0.7, tertiary 0.4.
type MissionKeywords struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
	Tertiary  []string `yaml:"tertiary"`
}

// ServiceCategory is one service area with its subcategories and weight.
type ServiceCategory struct {
	Subcategories []string `yaml:"subcategories"`
	Weight        float64  `yaml:"weight"`
}

// ScoringWeights are the mission score component weights.
type ScoringWeights struct {
	MissionAlignment       float64 `yaml:"mission_alignment"`
	ServiceOverlap         float64 `yaml:"service_overlap"`
	GeographicCoverage     float64 `yaml:"geographic_coverage"`
	OrganizationalCapacity float64 `yaml:"organizational_capacity"`
	PartnershipHistory     float64 `yaml:"partnership_history"`
}

// Sum returns the total of all component weights.
func (w ScoringWeights) Sum() float64 {
	return w.MissionAlignment + w.ServiceOverlap + w.GeographicCoverage +
		w.OrganizationalCapacity + w.PartnershipHistory
}

// KeywordConfig is the sponsor mission configuration loaded from YAML.
type KeywordConfig struct {
	MissionKeywords   MissionKeywords            `yaml:"mission_keywords"`
	ServiceCategories map[string]ServiceCategory `yaml:"service_categories"`
	ScoringWeights    ScoringWeights             `yaml:"scoring_weights"`
}

// LoadKeywordConfig reads the mission configuration. Weights that do not sum
// to 1.0 are logged but preserved as configured; the final score is clamped
// after summation.
func LoadKeywordConfig(path string, log logger.Logger) (*KeywordConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mission config %s: %w", path, err)
	}

	cfg := &KeywordConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse mission config: %w", err)
	}

	if len(cfg.MissionKeywords.Primary) == 0 {
		return nil, fmt.Errorf("mission config %s: primary keywords are required", path)
	}

	if sum := cfg.ScoringWeights.Sum(); math.Abs(sum-1.0) > 0.01 {
		log.Warn("mission scoring weights do not sum to 1.0",
			logger.Float64("sum", sum),
			logger.String("path", path))
	}

	return cfg, nil
}
