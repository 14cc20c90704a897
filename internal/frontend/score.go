package frontend

import (
	"math"
	"math/rand"

	"github.com/barradesonido/bsops/internal/logging"
)

// Score and star bounds for the synthetic ratings shown on the storefront.
const (
	minScore = 9.0
	maxScore = 9.9

	minStars = 4.0
	maxStars = 5.0
)

// Rating is the synthetic valuation attached to a ranked product.
type Rating struct {
	Score        float64 `json:"score"`
	Stars        float64 `json:"stars"`
	Label        string  `json:"label"`
	SpecialBadge string  `json:"special_badge,omitempty"`
}

// ScoreGenerator produces position-based scores with a small random jitter.
// Earlier positions always score higher.
type ScoreGenerator struct {
	rng *rand.Rand
	log logging.Logger
}

// NewScoreGenerator creates a generator seeded from seed, so rankings can be
// reproduced when needed. A nil logger is replaced with a Nop.
func NewScoreGenerator(seed int64, log logging.Logger) *ScoreGenerator {
	if log == nil {
		log = logging.Nop()
	}
	return &ScoreGenerator{rng: rand.New(rand.NewSource(seed)), log: log}
}

// Score computes the rating score for a 1-based position: 9.9 at the top,
// dropping 0.05 per position, jittered by at most ±0.02 and clamped to
// [9.0, 9.9], rounded to one decimal.
func (g *ScoreGenerator) Score(position int) float64 {
	base := maxScore - float64(position-1)*0.05
	if base < minScore {
		base = minScore
	}

	variation := float64(g.rng.Intn(41)-20) / 1000
	score := base + variation

	score = math.Max(minScore, math.Min(maxScore, score))
	score = math.Round(score*10) / 10

	g.log.Debug("score generated", logging.Fields{
		"position": position,
		"base":     base,
		"score":    score,
	})
	return score
}

// Stars maps a score in [9.0, 9.9] onto a star count in [4.0, 5.0], rounded
// to halves.
func (g *ScoreGenerator) Stars(score float64) float64 {
	normalized := (score - minScore) / (maxScore - minScore)
	stars := minStars + normalized*(maxStars-minStars)

	stars = math.Round(stars*2) / 2
	return math.Max(minStars, math.Min(maxStars, stars))
}

// QualityLabel buckets a score into the storefront quality wording.
func (g *ScoreGenerator) QualityLabel(score float64) string {
	switch {
	case score >= 9.7:
		return "Excepcional"
	case score >= 9.4:
		return "Excelente"
	case score >= 9.1:
		return "Genial"
	default:
		return "Bueno"
	}
}

// SpecialBadge returns the promotional badge for a position, or "" when the
// position carries none. Only the first and third spots get one.
func (g *ScoreGenerator) SpecialBadge(position int) string {
	switch position {
	case 1:
		return "#1 MEJOR OPCIÓN 2024"
	case 3:
		return "#3 MEJOR VALOR 2024"
	default:
		return ""
	}
}

// Rating bundles score, stars, label and badge for a position.
func (g *ScoreGenerator) Rating(position int) Rating {
	score := g.Score(position)
	return Rating{
		Score:        score,
		Stars:        g.Stars(score),
		Label:        g.QualityLabel(score),
		SpecialBadge: g.SpecialBadge(position),
	}
}
