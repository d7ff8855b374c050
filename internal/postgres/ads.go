package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/jackc/pgx/v5"
)

const adColumns = "id, text, url, reward::text, created_at"

func (s *Store) AddAd(ctx context.Context, params store.AddAdParams) (*models.Ad, error) {
	text := strings.TrimSpace(params.Text)
	destination := strings.TrimSpace(params.Destination)
	if text == "" || destination == "" || !params.Reward.IsPositive() {
		return nil, fmt.Errorf("%w: text, destination and a positive reward are required", store.ErrInvalidAd)
	}

	ad, err := scanAd(s.pool.QueryRow(ctx, `
        INSERT INTO ads (text, url, reward)
        VALUES ($1, $2, $3::text::numeric)
        RETURNING `+adColumns,
		text, destination, params.Reward.String()))
	if err != nil {
		return nil, fmt.Errorf("unable to insert ad: %w", err)
	}
	return ad, nil
}

func (s *Store) GetAd(ctx context.Context, adId int64) (*models.Ad, error) {
	ad, err := scanAd(s.pool.QueryRow(ctx, "SELECT "+adColumns+" FROM ads WHERE id = $1", adId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: ad %d", store.ErrNotFound, adId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query ad: %w", err)
	}
	return ad, nil
}

func (s *Store) ListRecentAds(ctx context.Context, limit int) ([]models.Ad, error) {
	if limit <= 0 {
		return []models.Ad{}, nil
	}

	rows, err := s.pool.Query(ctx, "SELECT "+adColumns+" FROM ads ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query ads: %w", err)
	}
	defer rows.Close()

	ads := []models.Ad{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan ad row: %w", err)
		}
		ads = append(ads, *ad)
	}
	return ads, rows.Err()
}

func (s *Store) CountAds(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ads").Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count ads: %w", err)
	}
	return count, nil
}

func scanAd(row pgx.Row) (*models.Ad, error) {
	var ad models.Ad
	var rewardStr string
	if err := row.Scan(&ad.Id, &ad.Text, &ad.Destination, &rewardStr, &ad.CreatedAt); err != nil {
		return nil, err
	}
	reward, err := parseDecimal("reward", rewardStr)
	if err != nil {
		return nil, err
	}
	ad.Reward = reward
	return &ad, nil
}
