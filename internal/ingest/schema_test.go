package ingest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

func validRow(overrides map[string]string) RawRecord {
	row := RawRecord{
		ColEventID:        uuid.NewString(),
		ColMerchantID:     "MRC-000001",
		ColEventTimestamp: "2024-01-09T10:00:00",
		ColProduct:        "POS",
		ColEventType:      "CARD_TRANSACTION",
		ColAmount:         "1500.50",
		ColStatus:         "SUCCESS",
		ColChannel:        "POS",
		ColRegion:         "LAGOS",
		ColMerchantTier:   "VERIFIED",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestParseRow_Valid(t *testing.T) {
	row := validRow(nil)
	res := ParseRow(row)
	if !res.Accepted() {
		t.Fatalf("expected row to be accepted, got reason %q", res.Reason)
	}

	rec := res.Record
	if rec.EventID.String() != row[ColEventID] {
		t.Errorf("EventID = %s, want %s", rec.EventID, row[ColEventID])
	}
	if rec.MerchantID != "MRC-000001" {
		t.Errorf("MerchantID = %q, want %q", rec.MerchantID, "MRC-000001")
	}
	if !rec.Amount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("Amount = %s, want 1500.50", rec.Amount)
	}
	if rec.Status != domain.StatusSuccess {
		t.Errorf("Status = %q, want %q", rec.Status, domain.StatusSuccess)
	}
	want := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	if !rec.EventTimestamp.Equal(want) {
		t.Errorf("EventTimestamp = %v, want %v", rec.EventTimestamp, want)
	}
	if rec.Channel == nil || *rec.Channel != domain.ChannelPOS {
		t.Errorf("Channel = %v, want POS", rec.Channel)
	}
	if rec.Region == nil || *rec.Region != "LAGOS" {
		t.Errorf("Region = %v, want LAGOS", rec.Region)
	}
}

func TestParseRow_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		want      RejectReason
	}{
		{"empty event_id", map[string]string{ColEventID: ""}, RejectInvalidEventID},
		{"malformed event_id", map[string]string{ColEventID: "not-a-uuid"}, RejectInvalidEventID},
		{"empty merchant_id", map[string]string{ColMerchantID: ""}, RejectMissingMerchantID},
		{"blank merchant_id", map[string]string{ColMerchantID: "   "}, RejectMissingMerchantID},
		{"empty timestamp", map[string]string{ColEventTimestamp: ""}, RejectInvalidTimestamp},
		{"unparseable timestamp", map[string]string{ColEventTimestamp: "yesterday"}, RejectInvalidTimestamp},
		{"unknown status", map[string]string{ColStatus: "UNKNOWN"}, RejectInvalidStatus},
		{"empty status", map[string]string{ColStatus: ""}, RejectInvalidStatus},
		{"unknown product", map[string]string{ColProduct: "CRYPTO"}, RejectInvalidProduct},
		{
			"first failure wins",
			map[string]string{ColMerchantID: "", ColStatus: "UNKNOWN", ColProduct: "CRYPTO"},
			RejectMissingMerchantID,
		},
		{
			"status checked before product",
			map[string]string{ColStatus: "UNKNOWN", ColProduct: "CRYPTO"},
			RejectInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseRow(validRow(tt.overrides))
			if res.Accepted() {
				t.Fatal("expected row to be rejected")
			}
			if res.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.want)
			}
		})
	}
}

func TestParseRow_Normalization(t *testing.T) {
	res := ParseRow(validRow(map[string]string{
		ColStatus:     " pending ",
		ColProduct:    "card_payment",
		ColChannel:    " app",
		ColMerchantID: "  MRC-9 ",
		ColRegion:     "",
	}))
	if !res.Accepted() {
		t.Fatalf("expected row to be accepted, got reason %q", res.Reason)
	}
	rec := res.Record
	if rec.Status != domain.StatusPending {
		t.Errorf("Status = %q, want PENDING", rec.Status)
	}
	if rec.Product != domain.ProductCardPayment {
		t.Errorf("Product = %q, want CARD_PAYMENT", rec.Product)
	}
	if rec.Channel == nil || *rec.Channel != domain.ChannelApp {
		t.Errorf("Channel = %v, want APP", rec.Channel)
	}
	if rec.MerchantID != "MRC-9" {
		t.Errorf("MerchantID = %q, want trimmed value", rec.MerchantID)
	}
	if rec.Region != nil {
		t.Errorf("Region = %q, want nil", *rec.Region)
	}
}

func TestParseRow_UnknownChannelIsDropped(t *testing.T) {
	for _, channel := range []string{"CARRIER_PIGEON", "", "  "} {
		res := ParseRow(validRow(map[string]string{ColChannel: channel}))
		if !res.Accepted() {
			t.Fatalf("channel %q: row should be accepted, got %q", channel, res.Reason)
		}
		if res.Record.Channel != nil {
			t.Errorf("channel %q: Channel = %q, want nil", channel, *res.Record.Channel)
		}
	}
}

func TestParseRow_AmountCoercion(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"INVALID", "0"},
		{"", "0"},
		{"NaN", "0"},
		{"0.0", "0"},
		{"12.345", "12.35"},
		{" 42 ", "42"},
		{"-3.10", "-3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			res := ParseRow(validRow(map[string]string{ColAmount: tt.amount}))
			if !res.Accepted() {
				t.Fatalf("amount %q should never reject the row, got %q", tt.amount, res.Reason)
			}
			if !res.Record.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Amount = %s, want %s", res.Record.Amount, tt.want)
			}
		})
	}
}

func TestParseRow_KYCZeroAmount(t *testing.T) {
	res := ParseRow(validRow(map[string]string{
		ColProduct:   "KYC",
		ColEventType: "TIER_UPGRADE",
		ColAmount:    "0.0",
	}))
	if !res.Accepted() {
		t.Fatalf("KYC row should be accepted, got %q", res.Reason)
	}
	if !res.Record.Amount.IsZero() {
		t.Errorf("Amount = %s, want 0", res.Record.Amount)
	}
}

func TestParseRow_MissingOptionalColumns(t *testing.T) {
	row := validRow(nil)
	delete(row, ColChannel)
	delete(row, ColRegion)
	delete(row, ColMerchantTier)
	delete(row, ColAmount)

	res := ParseRow(row)
	if !res.Accepted() {
		t.Fatalf("expected row to be accepted, got %q", res.Reason)
	}
	if res.Record.Channel != nil || res.Record.Region != nil || res.Record.MerchantTier != nil {
		t.Error("optional columns should be nil when missing")
	}
	if !res.Record.Amount.IsZero() {
		t.Errorf("Amount = %s, want 0", res.Record.Amount)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-09T10:00:00", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-09T10:00:00Z", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-09T11:00:00+01:00", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-09 10:00:00", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-09T11:00:00+0100", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-09 08:30:00.5-0130", time.Date(2024, 1, 9, 10, 0, 0, 500_000_000, time.UTC), true},
		{"2024-01-09T10:00:00.250", time.Date(2024, 1, 9, 10, 0, 0, 250_000_000, time.UTC), true},
		{"2024-01-09", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), true},
		{"09/01/2024", time.Time{}, false},
		{"2024-13-45T99:00:00", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
