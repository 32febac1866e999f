package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"competitor-radar/config"
	"competitor-radar/models"
)

// RankingSource supplies keyword demand and a top-10 ranking sample for a
// category.
type RankingSource interface {
	Signals(ctx context.Context, category models.Category, stats models.AggregateMarketStats) (*models.RankingSignals, error)
}

const rankingSampleSize = 10

// SimulatedRankingSource fabricates ranking signals from the market profile.
// It is a stand-in until a real keyword and bestseller data provider is
// wired; nothing it returns is observed data.
type SimulatedRankingSource struct {
	profile *config.Profile

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedRankingSource creates a source whose output is fully determined
// by seed.
func NewSimulatedRankingSource(profile *config.Profile, seed int64) *SimulatedRankingSource {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	return &SimulatedRankingSource{profile: profile, rng: rand.New(rand.NewSource(seed))}
}

func (s *SimulatedRankingSource) Signals(ctx context.Context, category models.Category, stats models.AggregateMarketStats) (*models.RankingSignals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keywords := make([]models.KeywordCandidate, 0, len(s.profile.KeywordTemplates))
	for _, kt := range s.profile.KeywordTemplates {
		keywords = append(keywords, models.KeywordCandidate{
			Word:       fmt.Sprintf("%s %s", category.Name, kt.Suffix),
			Volume:     kt.Volume,
			Difficulty: kt.Difficulty,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sample := make([]models.RankedListing, rankingSampleSize)
	for i := range sample {
		brand := "Unknown Brand"
		if len(s.profile.MajorBrands) > 0 && s.rng.Float64() > 0.6 {
			brand = s.profile.MajorBrands[s.rng.Intn(len(s.profile.MajorBrands))]
		}
		sample[i] = models.RankedListing{
			Brand:       brand,
			Price:       stats.AvgPrice * (0.8 + s.rng.Float64()*0.4),
			Rating:      3.0 + s.rng.Float64()*2.0,
			ReviewCount: s.rng.Intn(500),
		}
	}

	return &models.RankingSignals{
		Keywords:    keywords,
		TopListings: sample,
		MajorBrands: append([]string(nil), s.profile.MajorBrands...),
	}, nil
}
