package models

import "time"

// ProposalStatus is the lifecycle state of a proposal. The engine only ever
// produces DRAFT; later transitions belong to the persistence layer.
type ProposalStatus string

const ProposalStatusDraft ProposalStatus = "DRAFT"

// Archetype names the market gap a proposal targets.
type Archetype string

const (
	ArchetypeQualityGap Archetype = "QUALITY_GAP"
	ArchetypeValueGap   Archetype = "VALUE_GAP"
	ArchetypeBalanced   Archetype = "BALANCED"
)

// AggregateMarketStats summarizes a category's competitive landscape.
type AggregateMarketStats struct {
	CategoryID      string  `json:"categoryId"`
	CategoryName    string  `json:"categoryName"`
	AvgPrice        float64 `json:"avgPrice"`
	AvgRating       float64 `json:"avgRating"`
	RankingURLCount int     `json:"rankingUrlCount"`
	CompetitorCount int     `json:"competitorCount"`
}

// KeywordCandidate is a search term with its demand and competition figures.
type KeywordCandidate struct {
	Word       string  `json:"word"`
	Volume     float64 `json:"volume"`
	Difficulty float64 `json:"difficulty"`
}

// ScoredKeyword is a KeywordCandidate ranked by Volume/Difficulty.
type ScoredKeyword struct {
	KeywordCandidate
	Score float64 `json:"score"`
}

// RankedListing is one item of a category's top-10 ranking sample.
type RankedListing struct {
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// RankingSignals carries the externally sourced keyword and ranking inputs
// used to enrich a proposal.
type RankingSignals struct {
	Keywords    []KeywordCandidate `json:"keywords"`
	TopListings []RankedListing    `json:"topListings"`
	MajorBrands []string           `json:"majorBrands"`
}

// Proposal is a product-opportunity suggestion for a category.
type Proposal struct {
	ID          string         `json:"id" db:"id"`
	CategoryID  string         `json:"categoryId" db:"category_id"`
	Archetype   Archetype      `json:"archetype" db:"archetype"`
	ProductName string         `json:"productName" db:"product_name"`
	TargetPrice float64        `json:"targetPrice" db:"target_price"`
	Features    string         `json:"features" db:"features"`
	Keywords    string         `json:"keywords" db:"keywords"`
	Reasoning   string         `json:"reasoning" db:"reasoning"`
	Status      ProposalStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}
