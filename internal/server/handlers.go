package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/odakpay/posbridge/internal/common"
	"github.com/odakpay/posbridge/internal/config"
	"github.com/odakpay/posbridge/internal/pos"
)

// Handler exposes HTTP endpoints for payments, reversals and 3D callbacks.
type Handler struct {
	Log       zerolog.Logger
	Cfg       *config.Config
	Registry  *pos.Registry
	Redis     *redis.Client
	ReplayTTL time.Duration
}

type cardReq struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
	Holder      string `json:"holder"`
}

type paymentReq struct {
	OrderID          string   `json:"orderId"`
	Amount           any      `json:"amount"`
	Currency         string   `json:"currency"`
	SuccessURL       string   `json:"successUrl"`
	FailURL          string   `json:"failUrl"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	IP               string   `json:"ip"`
	Language         string   `json:"language"`
	NonSecure        bool     `json:"nonSecure"`
	InstallmentCount *int     `json:"installmentCount"`
	DeferringCount   *int     `json:"deferringCount"`
	Card             *cardReq `json:"card"`
}

type formResp struct {
	Action     string            `json:"action"`
	Method     string            `json:"method"`
	Fields     map[string]string `json:"fields"`
	CardFields []string          `json:"cardFields,omitempty"`
}

type paymentResp struct {
	Kind          string    `json:"kind"`
	RedirectURL   string    `json:"redirectUrl,omitempty"`
	Form          *formResp `json:"form,omitempty"`
	HTML          string    `json:"html,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Token         string    `json:"token,omitempty"`
}

type reversalReq struct {
	OrderID         string `json:"orderId"`
	MerchantOrderID string `json:"merchantOrderId"`
	TransactionID   string `json:"transactionId"`
	RRN             string `json:"rrn"`
	AuthCode        string `json:"authCode"`
	Amount          any    `json:"amount"`
	OriginalAmount  any    `json:"originalAmount"`
	Partial         bool   `json:"partial"`
}

type reversalResp struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type bankResp struct {
	Bank         string `json:"bank"`
	MerchantForm bool   `json:"merchantForm"`
	HostedForm   bool   `json:"hostedForm"`
	Cancel       bool   `json:"cancel"`
	Refund       bool   `json:"refund"`
	Partial      bool   `json:"partialRefund"`
}

func (h *Handler) bank(w http.ResponseWriter, r *http.Request) (pos.Bank, pos.Config, bool) {
	bank := pos.Bank(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "bank"))))
	cfg, ok := h.Cfg.BankConfig(bank)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_BANK", "bank is not configured: "+string(bank), nil)
		return "", pos.Config{}, false
	}
	return bank, cfg, true
}

// Banks lists the registered banks and their capabilities.
func (h *Handler) Banks(w http.ResponseWriter, r *http.Request) {
	banks := h.Registry.Banks()
	out := make([]bankResp, 0, len(banks))
	for _, bank := range banks {
		cfg, ok := h.Cfg.BankConfig(bank)
		if !ok {
			continue
		}
		adapter, err := h.Registry.Resolve(bank, h.Cfg.PosEnv, cfg)
		if err != nil {
			continue
		}
		caps := adapter.Capabilities()
		out = append(out, bankResp{
			Bank:         string(bank),
			MerchantForm: caps.MerchantForm,
			HostedForm:   caps.HostedForm,
			Cancel:       caps.Cancel,
			Refund:       caps.Refund,
			Partial:      caps.PartialRefund,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"banks": out})
}

// Payment initiates a sale against the selected bank.
func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	bank, cfg, ok := h.bank(w, r)
	if !ok {
		return
	}
	var req paymentReq
	if err := decodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	amount, err := pos.NormalizeAmount(req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	payload := &pos.PaymentPayload{
		OrderID:          strings.TrimSpace(req.OrderID),
		Amount:           amount,
		Currency:         req.Currency,
		SuccessURL:       req.SuccessURL,
		FailURL:          req.FailURL,
		Email:            req.Email,
		Phone:            req.Phone,
		IP:               req.IP,
		Language:         req.Language,
		NonSecure:        req.NonSecure,
		InstallmentCount: req.InstallmentCount,
		DeferringCount:   req.DeferringCount,
	}
	if payload.IP == "" {
		payload.IP = common.ClientIP(r)
	}
	if req.Card != nil {
		payload.Card = &pos.Card{
			Number:      strings.ReplaceAll(req.Card.Number, " ", ""),
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CVV:         req.Card.CVV,
			Holder:      req.Card.Holder,
		}
	}

	result, err := h.Registry.Payment(r.Context(), bank, h.Cfg.PosEnv, cfg, payload)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := paymentResp{
		Kind:          string(result.Kind),
		RedirectURL:   result.RedirectURL,
		HTML:          result.HTML,
		TransactionID: result.TransactionID,
		Token:         result.Token,
	}
	if result.Form != nil {
		resp.Form = &formResp{
			Action:     result.Form.Action,
			Method:     result.Form.Method,
			Fields:     result.Form.Fields,
			CardFields: result.Form.CardFields,
		}
	}
	common.JSON(w, http.StatusOK, resp)
}

// Cancel voids an unsettled sale in full.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	bank, cfg, ok := h.bank(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeReversal(w, r)
	if !ok {
		return
	}
	payload := &pos.CancelPayload{
		OrderID:         req.OrderID,
		MerchantOrderID: req.MerchantOrderID,
		TransactionID:   req.TransactionID,
		RRN:             req.RRN,
		AuthCode:        req.AuthCode,
	}
	result, err := h.Registry.Cancel(r.Context(), bank, h.Cfg.PosEnv, cfg, payload)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.writeReversal(w, result)
}

// Refund returns money on a settled sale, fully or partially.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	bank, cfg, ok := h.bank(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeReversal(w, r)
	if !ok {
		return
	}
	payload := &pos.RefundPayload{
		OrderID:         req.OrderID,
		MerchantOrderID: req.MerchantOrderID,
		TransactionID:   req.TransactionID,
		RRN:             req.RRN,
		AuthCode:        req.AuthCode,
	}
	var err error
	if req.Amount != nil {
		if payload.Amount, err = pos.NormalizeAmount(req.Amount); err != nil {
			writeErr(w, err)
			return
		}
	}
	if req.OriginalAmount != nil {
		if payload.OriginalAmount, err = pos.NormalizeAmount(req.OriginalAmount); err != nil {
			writeErr(w, err)
			return
		}
	}

	var result *pos.Result
	if req.Partial {
		result, err = h.Registry.RefundPartial(r.Context(), bank, h.Cfg.PosEnv, cfg, payload)
	} else {
		result, err = h.Registry.RefundFull(r.Context(), bank, h.Cfg.PosEnv, cfg, payload)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	h.writeReversal(w, result)
}

// Callback receives the bank's 3D Secure return, rejects replays and reports
// whether the signature checks out. The merchant system decides what to do
// with an unverified callback; this endpoint never provisions on its own.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	bank, cfg, ok := h.bank(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unparseable callback form", nil)
		return
	}
	values := r.Form

	if h.Redis != nil {
		sum := sha256.Sum256([]byte(string(bank) + "|" + values.Encode()))
		key := "cb:" + hex.EncodeToString(sum[:])
		fresh, err := h.Redis.SetNX(r.Context(), key, "seen", h.replayTTL()).Result()
		if err != nil {
			h.Log.Warn().Err(err).Msg("callback replay store unavailable")
		} else if !fresh {
			common.JSONError(w, http.StatusConflict, "CALLBACK_REPLAY", "callback already processed", nil)
			return
		}
	}

	verified, err := h.Registry.VerifyCallback(bank, h.Cfg.PosEnv, cfg, values)
	if err != nil {
		writeErr(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"verified": verified,
		"orderId":  firstNonEmpty(values.Get("MerchantOrderId"), values.Get("Siparis_ID"), values.Get("orderId")),
	})
}

// decodeJSON decodes a request body with numbers as json.Number, so integer
// amounts stay exact minor units through pos.NormalizeAmount instead of
// taking the float64 major-unit path.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

func (h *Handler) decodeReversal(w http.ResponseWriter, r *http.Request) (*reversalReq, bool) {
	var req reversalReq
	if err := decodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return nil, false
	}
	req.MerchantOrderID = strings.TrimSpace(req.MerchantOrderID)
	if req.MerchantOrderID == "" {
		req.MerchantOrderID = strings.TrimSpace(req.OrderID)
	}
	return &req, true
}

func (h *Handler) writeReversal(w http.ResponseWriter, result *pos.Result) {
	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}
	common.JSON(w, status, reversalResp{OK: result.OK, Code: result.Code, Message: result.Message})
}

func (h *Handler) replayTTL() time.Duration {
	if h.ReplayTTL <= 0 {
		return 30 * time.Minute
	}
	return h.ReplayTTL
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
