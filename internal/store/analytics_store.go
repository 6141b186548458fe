package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TopMerchant is the merchant with the highest successful volume.
type TopMerchant struct {
	MerchantID  string          `json:"merchant_id"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

// KYCFunnel counts distinct merchants that reached each KYC stage.
type KYCFunnel struct {
	DocumentsSubmitted     int `json:"documents_submitted"`
	VerificationsCompleted int `json:"verifications_completed"`
	TierUpgrades           int `json:"tier_upgrades"`
}

// AdoptionCount is the number of distinct merchants that used a product.
type AdoptionCount struct {
	Product   string
	Merchants int
}

// FailureRate is FAILED / (SUCCESS + FAILED) * 100 for one product.
type FailureRate struct {
	Product     string          `json:"product"`
	FailureRate decimal.Decimal `json:"failure_rate"`
}

// TopMerchant returns nil when there are no successful activities.
func (s *PostgresStore) TopMerchant(ctx context.Context) (*TopMerchant, error) {
	var tm TopMerchant
	var volume string
	err := s.pool.QueryRow(ctx, `
		SELECT merchant_id, SUM(amount)::text AS total_volume
		FROM merchant_activities
		WHERE status = 'SUCCESS'
		GROUP BY merchant_id
		ORDER BY SUM(amount) DESC
		LIMIT 1
	`).Scan(&tm.MerchantID, &volume)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying top merchant: %w", err)
	}

	tm.TotalVolume, err = decimal.NewFromString(volume)
	if err != nil {
		return nil, fmt.Errorf("parsing total volume %q: %w", volume, err)
	}
	tm.TotalVolume = tm.TotalVolume.Round(2)
	return &tm, nil
}

// MonthlyActiveMerchants maps YYYY-MM (UTC) to distinct merchants with at
// least one successful activity in that month.
func (s *PostgresStore) MonthlyActiveMerchants(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(event_timestamp AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
			   COUNT(DISTINCT merchant_id)
		FROM merchant_activities
		WHERE status = 'SUCCESS'
		GROUP BY month
		ORDER BY month
	`)
	if err != nil {
		return nil, fmt.Errorf("querying monthly active merchants: %w", err)
	}
	return collectCounts(rows)
}

// ProductAdoption counts the distinct merchants that used each product,
// whatever the status, most adopted first.
func (s *PostgresStore) ProductAdoption(ctx context.Context) ([]AdoptionCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product, COUNT(DISTINCT merchant_id) AS merchants
		FROM merchant_activities
		GROUP BY product
		ORDER BY merchants DESC, product
	`)
	if err != nil {
		return nil, fmt.Errorf("querying product adoption: %w", err)
	}
	defer rows.Close()

	var adoption []AdoptionCount
	for rows.Next() {
		var a AdoptionCount
		if err := rows.Scan(&a.Product, &a.Merchants); err != nil {
			return nil, fmt.Errorf("scanning product adoption: %w", err)
		}
		adoption = append(adoption, a)
	}
	return adoption, rows.Err()
}

func (s *PostgresStore) KYCFunnel(ctx context.Context) (*KYCFunnel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_type, COUNT(DISTINCT merchant_id)
		FROM merchant_activities
		WHERE product = 'KYC' AND status = 'SUCCESS'
		GROUP BY event_type
	`)
	if err != nil {
		return nil, fmt.Errorf("querying kyc funnel: %w", err)
	}
	counts, err := collectCounts(rows)
	if err != nil {
		return nil, err
	}

	var funnel KYCFunnel
	for eventType, n := range counts {
		switch strings.ToUpper(eventType) {
		case "DOCUMENT_SUBMITTED":
			funnel.DocumentsSubmitted += n
		case "VERIFICATION_COMPLETED":
			funnel.VerificationsCompleted += n
		case "TIER_UPGRADE":
			funnel.TierUpgrades += n
		}
	}
	return &funnel, nil
}

// FailureRates ignores PENDING activities and is ordered by rate, highest
// first.
func (s *PostgresStore) FailureRates(ctx context.Context) ([]FailureRate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product, rate::text
		FROM (
			SELECT product,
				   ROUND(
					   COUNT(*) FILTER (WHERE status = 'FAILED')::numeric * 100
					   / NULLIF(COUNT(*), 0),
					   1
				   ) AS rate
			FROM merchant_activities
			WHERE status IN ('SUCCESS', 'FAILED')
			GROUP BY product
		) r
		ORDER BY rate DESC NULLS LAST, product
	`)
	if err != nil {
		return nil, fmt.Errorf("querying failure rates: %w", err)
	}
	defer rows.Close()

	rates := []FailureRate{}
	for rows.Next() {
		var product string
		var rate *string
		if err := rows.Scan(&product, &rate); err != nil {
			return nil, fmt.Errorf("scanning failure rate: %w", err)
		}
		fr := FailureRate{Product: product, FailureRate: decimal.Zero}
		if rate != nil {
			if fr.FailureRate, err = decimal.NewFromString(*rate); err != nil {
				return nil, fmt.Errorf("parsing failure rate %q: %w", *rate, err)
			}
		}
		rates = append(rates, fr)
	}
	return rates, rows.Err()
}

func collectCounts(rows pgx.Rows) (map[string]int, error) {
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
