// internal/stages/analysis/risk/service.go
package risk

import (
	"context"
	"math/rand"

	"finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/models"
)

// Service derives a risk score in [0,1] and its tier from days delinquent.
// Scoring is bucketed-continuous: the delinquency selects an escalating band
// and the position within the band sets severity. The function is total over
// its numeric domain; negative or absent delinquency lands in the lowest band.
type Service struct {
	config *Config
	logger logger.Logger
}

func NewService(config *Config, log logger.Logger) (*Service, error) {
	if config.Tiers.High < config.Tiers.Medium {
		return nil, errors.NewConfigInvalidError("tier thresholds must be monotone (high >= medium)")
	}
	if len(config.Bands) == 0 {
		return nil, errors.NewConfigInvalidError("at least one risk band is required")
	}
	return &Service{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": "risk"}),
	}, nil
}

// Assess scores one delinquency value. A nil daysDelinquent is treated as
// undefined and lands in the lowest band at zero severity.
func (s *Service) Assess(daysDelinquent *int) models.RiskAssessment {
	days := 0
	if daysDelinquent != nil {
		days = *daysDelinquent
	}
	score := s.Score(days)
	return models.RiskAssessment{
		Score: score,
		Tier:  s.TierFor(score),
	}
}

// Score maps days delinquent to a score in [0,1].
func (s *Service) Score(days int) float64 {
	if days < 0 {
		days = 0
	}

	bandIdx := 0
	for i, band := range s.config.Bands {
		if days >= band.FromDays {
			bandIdx = i
		}
	}
	band := s.config.Bands[bandIdx]

	dayLo := band.FromDays
	var dayHi int
	if bandIdx+1 < len(s.config.Bands) {
		dayHi = s.config.Bands[bandIdx+1].FromDays
	} else {
		// open band: severity saturates over the configured span
		dayHi = dayLo + s.config.SaturationDays
	}

	severity := s.severity(days, dayLo, dayHi)
	return band.ScoreMin + severity*(band.ScoreMax-band.ScoreMin)
}

func (s *Service) severity(days, dayLo, dayHi int) float64 {
	if s.config.Scoring == ScoringJitter {
		// Seeded per-input draw: stochastic in-band signal that stays
		// reproducible for a fixed seed.
		src := rand.NewSource(s.config.Seed ^ (int64(days)+1)*0x9E3779B9)
		return rand.New(src).Float64()
	}

	if dayHi <= dayLo {
		return 0
	}
	sev := float64(days-dayLo) / float64(dayHi-dayLo)
	if sev < 0 {
		return 0
	}
	if sev > 1 {
		return 1
	}
	return sev
}

// TierFor derives the risk tier from a score via the configured monotone
// thresholds.
func (s *Service) TierFor(score float64) models.RiskTier {
	switch {
	case score >= s.config.Tiers.High:
		return models.TierHigh
	case score >= s.config.Tiers.Medium:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// Classify attaches a RiskAssessment to every merged record in place and
// returns the slice for chaining.
func (s *Service) Classify(ctx context.Context, records []models.MergedRecord) []models.MergedRecord {
	tiers := map[models.RiskTier]int{}
	for i := range records {
		records[i].Risk = s.Assess(records[i].Borrower.DaysDelinquent)
		tiers[records[i].Risk.Tier]++
	}

	s.logger.Info("records classified", map[string]interface{}{
		"records": len(records),
		"high":    tiers[models.TierHigh],
		"medium":  tiers[models.TierMedium],
		"low":     tiers[models.TierLow],
	})

	return records
}
