package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// placeBetRequest is the POST /api/bets body. Stake positivity is checked by
// the service so that its error ordering applies.
type placeBetRequest struct {
	MatchID string          `json:"match_id" validate:"required"`
	BetType string          `json:"bet_type" validate:"required,oneof=match_winner goals_above_3 yellow_cards red_cards"`
	Option  string          `json:"option" validate:"required"`
	Stake   decimal.Decimal `json:"stake"`
}

// BetHandler serves bet placement and ledger read endpoints.
type BetHandler struct {
	svc      BettingService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(svc BettingService, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// PlaceBet places a bet. Responds 201 with the result on success; on a
// rejected bet the result is returned with success=false and status 400 or
// 404.
// POST /api/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var body placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.svc.PlaceBet(r.Context(), domain.PlaceBetRequest{
		MatchID: body.MatchID,
		BetType: domain.BetType(body.BetType),
		Option:  body.Option,
		Stake:   body.Stake,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: place bet failed",
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListBets returns every placed bet.
// GET /api/bets
func (h *BetHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.svc.GetAllBets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list bets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

// GetBet returns a single bet.
// GET /api/bets/{id}
func (h *BetHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	bet, err := h.svc.GetBet(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Bet with ID %s not found", id))
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get bet failed",
			slog.String("bet_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get bet")
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func jsonFieldName(structField string) string {
	switch structField {
	case "MatchID":
		return "match_id"
	case "BetType":
		return "bet_type"
	case "Option":
		return "option"
	case "Stake":
		return "stake"
	}
	return structField
}
