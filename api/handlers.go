package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"updown/models"
	"updown/service"
)

// Handler bundles the engine services behind HTTP endpoints
type Handler struct {
	accounts   service.AccountService
	rounds     service.RoundService
	betting    service.BettingService
	settlement service.SettlementService
	payouts    service.PayoutService
}

// NewHandler creates a Handler over the engine services
func NewHandler(
	accounts service.AccountService,
	rounds service.RoundService,
	betting service.BettingService,
	settlement service.SettlementService,
	payouts service.PayoutService,
) *Handler {
	return &Handler{
		accounts:   accounts,
		rounds:     rounds,
		betting:    betting,
		settlement: settlement,
		payouts:    payouts,
	}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createAccountRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateAccount registers a new participant account
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccount returns an account by ID
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetLedger returns the most recent ledger entries for an account
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	entries, err := h.accounts.GetLedger(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetBets returns the most recent positions placed by an account
func (h *Handler) GetBets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	bets, err := h.accounts.GetBets(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

type createRoundRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// CreateRound opens a new round over the requested window
func (h *Handler) CreateRound(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerAccount(w, r)
	if !ok {
		return
	}

	var req createRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	round, err := h.rounds.CreateRound(r.Context(), callerID, req.StartTime, req.EndTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// GetRound returns a round by ID
func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	round, err := h.rounds.GetRound(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// GetRoundBets returns the positions recorded for a round
func (h *Handler) GetRoundBets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	bets, err := h.rounds.GetRoundBets(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

// GetRoundLedger returns every balance movement tied to a round
func (h *Handler) GetRoundLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.rounds.GetRoundLedger(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type placeBetRequest struct {
	Side   models.BetSide `json:"side"`
	Amount int64          `json:"amount"`
}

// PlaceBet escrows a stake on one side of a round
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerAccount(w, r)
	if !ok {
		return
	}
	roundID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bet, err := h.betting.PlaceBet(r.Context(), roundID, callerID, req.Side, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

// SettleRound fixes the outcome of an expired round
func (h *Handler) SettleRound(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerAccount(w, r)
	if !ok {
		return
	}
	roundID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	round, err := h.settlement.SettleRound(r.Context(), callerID, roundID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// Claim releases the caller's share of a settled round
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerAccount(w, r)
	if !ok {
		return
	}
	roundID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.payouts.Claim(r.Context(), roundID, callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AccruedFees returns the current withdrawable protocol fee balance
func (h *Handler) AccruedFees(w http.ResponseWriter, r *http.Request) {
	accrued, err := h.payouts.AccruedFees(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"accrued": accrued})
}

// SweepFees moves the accrued fees to the fee recipient account
func (h *Handler) SweepFees(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerAccount(w, r)
	if !ok {
		return
	}

	swept, err := h.payouts.SweepFees(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"swept": swept})
}

// callerAccount reads the caller's account ID from the X-Account-ID header
func callerAccount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-Account-ID")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "X-Account-ID header is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnauthorized, "X-Account-ID must be a positive integer")
		return 0, false
	}
	return id, true
}

// pathID parses a numeric path parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// limitParam parses the optional limit query parameter, defaulting to 50
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > 500 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return 0, false
	}
	return parsed, true
}

// writeServiceError maps engine sentinel errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrRoundNotFound),
		errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrNoBet):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidWindow),
		errors.Is(err, models.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrRoundNotOpen),
		errors.Is(err, models.ErrSideConflict),
		errors.Is(err, models.ErrTooEarly),
		errors.Is(err, models.ErrAlreadySettled),
		errors.Is(err, models.ErrRoundNotSettled),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrStaleOracleData):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
