package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

// Columns recognised in source files.
const (
	ColEventID        = "event_id"
	ColMerchantID     = "merchant_id"
	ColEventTimestamp = "event_timestamp"
	ColProduct        = "product"
	ColEventType      = "event_type"
	ColAmount         = "amount"
	ColStatus         = "status"
	ColChannel        = "channel"
	ColRegion         = "region"
	ColMerchantTier   = "merchant_tier"
)

// RejectReason says why a row was not forwarded to storage.
// The zero value means the row was accepted.
type RejectReason string

const (
	RejectNone              RejectReason = ""
	RejectInvalidEventID    RejectReason = "invalid_event_id"
	RejectMissingMerchantID RejectReason = "missing_merchant_id"
	RejectInvalidTimestamp  RejectReason = "invalid_timestamp"
	RejectInvalidStatus     RejectReason = "invalid_status"
	RejectInvalidProduct    RejectReason = "invalid_product"
	RejectDuplicateEventID  RejectReason = "duplicate_event_id"
)

// RawRecord is one source row keyed by header name. Columns missing from
// the file or the row read as "".
type RawRecord map[string]string

func (r RawRecord) get(col string) string {
	return r[col]
}

// ParseResult is either an accepted record or a rejection.
type ParseResult struct {
	Record domain.ActivityRecord
	Reason RejectReason
}

func (p ParseResult) Accepted() bool {
	return p.Reason == RejectNone
}

func reject(reason RejectReason) ParseResult {
	return ParseResult{Reason: reason}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 style date/times. Values without a zone
// are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAmount never fails: anything that is not a decimal becomes 0.00.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// ParseRow validates and normalizes one raw row. Rules are checked in order
// and the first failure decides the reason.
func ParseRow(raw RawRecord) ParseResult {
	eventIDStr := strings.TrimSpace(raw.get(ColEventID))
	if eventIDStr == "" {
		return reject(RejectInvalidEventID)
	}
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		return reject(RejectInvalidEventID)
	}

	merchantID := strings.TrimSpace(raw.get(ColMerchantID))
	if merchantID == "" {
		return reject(RejectMissingMerchantID)
	}

	tsStr := strings.TrimSpace(raw.get(ColEventTimestamp))
	if tsStr == "" {
		return reject(RejectInvalidTimestamp)
	}
	ts, ok := ParseTimestamp(tsStr)
	if !ok {
		return reject(RejectInvalidTimestamp)
	}

	status := domain.Status(strings.ToUpper(strings.TrimSpace(raw.get(ColStatus))))
	if !status.Valid() {
		return reject(RejectInvalidStatus)
	}

	product := domain.Product(strings.ToUpper(strings.TrimSpace(raw.get(ColProduct))))
	if !product.Valid() {
		return reject(RejectInvalidProduct)
	}

	rec := domain.ActivityRecord{
		EventID:        eventID,
		MerchantID:     merchantID,
		EventTimestamp: ts,
		Product:        product,
		EventType:      strings.TrimSpace(raw.get(ColEventType)),
		Amount:         ParseAmount(raw.get(ColAmount)),
		Status:         status,
		Channel:        normalizeChannel(raw.get(ColChannel)),
		Region:         optional(raw.get(ColRegion)),
		MerchantTier:   optional(raw.get(ColMerchantTier)),
	}
	return ParseResult{Record: rec}
}

// normalizeChannel drops unknown channels instead of rejecting the row.
func normalizeChannel(s string) *domain.Channel {
	c := domain.Channel(strings.ToUpper(strings.TrimSpace(s)))
	if c == "" || !c.Valid() {
		return nil
	}
	return &c
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
