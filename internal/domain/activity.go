package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product string

const (
	ProductPOS         Product = "POS"
	ProductAirtime     Product = "AIRTIME"
	ProductBills       Product = "BILLS"
	ProductCardPayment Product = "CARD_PAYMENT"
	ProductSavings     Product = "SAVINGS"
	ProductMoniebook   Product = "MONIEBOOK"
	ProductKYC         Product = "KYC"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

type Channel string

const (
	ChannelPOS     Channel = "POS"
	ChannelApp     Channel = "APP"
	ChannelUSSD    Channel = "USSD"
	ChannelWeb     Channel = "WEB"
	ChannelOffline Channel = "OFFLINE"
)

var (
	validProducts = map[Product]struct{}{
		ProductPOS: {}, ProductAirtime: {}, ProductBills: {}, ProductCardPayment: {},
		ProductSavings: {}, ProductMoniebook: {}, ProductKYC: {},
	}
	validStatuses = map[Status]struct{}{
		StatusSuccess: {}, StatusFailed: {}, StatusPending: {},
	}
	validChannels = map[Channel]struct{}{
		ChannelPOS: {}, ChannelApp: {}, ChannelUSSD: {}, ChannelWeb: {}, ChannelOffline: {},
	}
)

func (p Product) Valid() bool {
	_, ok := validProducts[p]
	return ok
}

func (s Status) Valid() bool {
	_, ok := validStatuses[s]
	return ok
}

func (c Channel) Valid() bool {
	_, ok := validChannels[c]
	return ok
}

// ActivityRecord is one validated merchant activity row, keyed by EventID.
// Optional columns are nil when absent.
type ActivityRecord struct {
	EventID        uuid.UUID       `json:"event_id"`
	MerchantID     string          `json:"merchant_id"`
	EventTimestamp time.Time       `json:"event_timestamp"`
	Product        Product         `json:"product"`
	EventType      string          `json:"event_type"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
	Channel        *Channel        `json:"channel,omitempty"`
	Region         *string         `json:"region,omitempty"`
	MerchantTier   *string         `json:"merchant_tier,omitempty"`
}
