package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Priya8975/merchant-activity-service/internal/store"
)

// AnalyticsSource answers the aggregate queries over stored activities.
type AnalyticsSource interface {
	TopMerchant(ctx context.Context) (*store.TopMerchant, error)
	MonthlyActiveMerchants(ctx context.Context) (map[string]int, error)
	ProductAdoption(ctx context.Context) ([]store.AdoptionCount, error)
	KYCFunnel(ctx context.Context) (*store.KYCFunnel, error)
	FailureRates(ctx context.Context) ([]store.FailureRate, error)
}

type AnalyticsHandler struct {
	source AnalyticsSource
	logger *slog.Logger
}

func NewAnalyticsHandler(source AnalyticsSource, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{source: source, logger: logger}
}

// Amounts are encoded as JSON numbers with a fixed scale.
type topMerchantResponse struct {
	MerchantID  string      `json:"merchant_id"`
	TotalVolume json.Number `json:"total_volume"`
}

type failureRateResponse struct {
	Product     string      `json:"product"`
	FailureRate json.Number `json:"failure_rate"`
}

// adoptionResponse encodes as a product-keyed object that keeps the
// query's order, most adopted first.
type adoptionResponse []store.AdoptionCount

func (a adoptionResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Product)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.Merchants))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (h *AnalyticsHandler) TopMerchant(w http.ResponseWriter, r *http.Request) {
	top, err := h.source.TopMerchant(r.Context())
	if err != nil {
		h.internalError(w, "top merchant", err)
		return
	}
	if top == nil {
		respondError(w, http.StatusNotFound, "no successful transactions found")
		return
	}

	respondJSON(w, http.StatusOK, topMerchantResponse{
		MerchantID:  top.MerchantID,
		TotalVolume: json.Number(top.TotalVolume.StringFixed(2)),
	})
}

func (h *AnalyticsHandler) MonthlyActiveMerchants(w http.ResponseWriter, r *http.Request) {
	counts, err := h.source.MonthlyActiveMerchants(r.Context())
	if err != nil {
		h.internalError(w, "monthly active merchants", err)
		return
	}
	if len(counts) == 0 {
		respondError(w, http.StatusNotFound, "no active merchant data found")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func (h *AnalyticsHandler) ProductAdoption(w http.ResponseWriter, r *http.Request) {
	adoption, err := h.source.ProductAdoption(r.Context())
	if err != nil {
		h.internalError(w, "product adoption", err)
		return
	}
	if len(adoption) == 0 {
		respondError(w, http.StatusNotFound, "no product adoption data found")
		return
	}
	respondJSON(w, http.StatusOK, adoptionResponse(adoption))
}

// KYCFunnel always answers, with zero counts when there is no KYC data.
func (h *AnalyticsHandler) KYCFunnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.source.KYCFunnel(r.Context())
	if err != nil {
		h.internalError(w, "kyc funnel", err)
		return
	}
	respondJSON(w, http.StatusOK, funnel)
}

func (h *AnalyticsHandler) FailureRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.source.FailureRates(r.Context())
	if err != nil {
		h.internalError(w, "failure rates", err)
		return
	}
	if len(rates) == 0 {
		respondError(w, http.StatusNotFound, "no failure rate data found")
		return
	}

	result := make([]failureRateResponse, 0, len(rates))
	for _, fr := range rates {
		result = append(result, failureRateResponse{
			Product:     fr.Product,
			FailureRate: json.Number(fr.FailureRate.StringFixed(1)),
		})
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AnalyticsHandler) internalError(w http.ResponseWriter, query string, err error) {
	h.logger.Error("analytics query failed", "query", query, "error", err)
	respondError(w, http.StatusInternalServerError, "failed to load "+query)
}
