package service

import (
	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

const defaultRedemptionRate = 100

func normalizeRewards(cfg domain.RewardSettings) domain.RewardSettings {
	if cfg.PointsPerDollar < 0 {
		cfg.PointsPerDollar = 0
	}
	if cfg.RedemptionRate <= 0 {
		cfg.RedemptionRate = defaultRedemptionRate
	}
	return cfg
}

func (s *Service) RewardConfig() domain.RewardSettings {
	return s.settings.Rewards
}

// redemptionValue converts points to money, truncated to cents.
func redemptionValue(points int, rate int) decimal.Decimal {
	if points <= 0 || rate <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(points)).
		Div(decimal.NewFromInt(int64(rate))).
		Truncate(2)
}

// earnedPoints is floor(subtotal × pointsPerDollar).
func earnedPoints(subtotal decimal.Decimal, pointsPerDollar int) int {
	if pointsPerDollar <= 0 || !subtotal.IsPositive() {
		return 0
	}
	return int(subtotal.Mul(decimal.NewFromInt(int64(pointsPerDollar))).Floor().IntPart())
}
