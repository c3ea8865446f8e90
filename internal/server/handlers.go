package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/claim"
	"presale-gateway/internal/domain"
	"presale-gateway/internal/intent"
	"presale-gateway/internal/pricing"
	"presale-gateway/internal/settlement"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statuses.Snapshot())
}

func (s *Server) handleWalletBalances(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}
	writeJSON(w, http.StatusOK, s.statuses.WalletBalances(r.Context(), wallet))
}

// presaleIntentRequest is the body of POST /api/token/presale/intent.
type presaleIntentRequest struct {
	Wallet       string           `json:"wallet" validate:"required"`
	AmountUSDC   *decimal.Decimal `json:"amount_usdc"`
	AmountTokens *decimal.Decimal `json:"amount_tokens"`
}

// intentResponse is shared by presale and early-claim issuance.
type intentResponse struct {
	OK         bool            `json:"ok"`
	Ref        string          `json:"ref"`
	Memo       string          `json:"memo"`
	AmountUSDC decimal.Decimal `json:"amount_usdc"`
	PriceUSDC  decimal.Decimal `json:"price_usdc"`
	Gated      bool            `json:"gated"`
	PayURL     string          `json:"solana_pay_url"`
}

func issuedResponse(issued *intent.Issued) intentResponse {
	return intentResponse{
		OK:         true,
		Ref:        issued.Intent.Reference,
		Memo:       issued.Intent.MemoTag,
		AmountUSDC: issued.Intent.AmountDue,
		PriceUSDC:  issued.Intent.PriceUsed,
		Gated:      issued.Intent.Gated,
		PayURL:     issued.PayURI,
	}
}

func (s *Server) handlePresaleIntent(w http.ResponseWriter, r *http.Request) {
	var req presaleIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	issued, err := s.intents.CreateContribution(r.Context(), intent.ContributionRequest{
		BuyerAddress: req.Wallet,
		AmountUSDC:   req.AmountUSDC,
		AmountTokens: req.AmountTokens,
	})
	if err != nil {
		s.writeIntentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issuedResponse(issued))
}

func (s *Server) handleEarlyClaimIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	issued, err := s.intents.CreateEarlyClaim(r.Context(), req.Wallet)
	if err != nil {
		s.writeIntentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issuedResponse(issued))
}

// writeIntentError maps issuance failures onto status codes. Operator
// misconfiguration is the only 500; everything else is the client's problem.
func (s *Server) writeIntentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrPriceNotConfigured):
		writeError(w, http.StatusInternalServerError, "price not configured")
	case errors.Is(err, intent.ErrPresaleClosed),
		errors.Is(err, intent.ErrEarlyClaimDisabled),
		errors.Is(err, intent.ErrInvalidAddress),
		errors.Is(err, intent.ErrAmountRequired),
		errors.Is(err, intent.ErrAmountAmbiguous),
		errors.Is(err, pricing.ErrBelowMinimum),
		errors.Is(err, pricing.ErrAboveMaximum):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Printf("intent issuance failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handlePresaleCheck(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "ref required")
		return
	}

	res, err := s.matcher.Check(r.Context(), ref)
	if err != nil {
		if errors.Is(err, settlement.ErrUnknownReference) {
			writeError(w, http.StatusNotFound, "unknown ref")
			return
		}
		// Ledger trouble: the answer is unknown, not pending.
		logger.Printf("settlement check failed for %s: %v", ref, err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
		return
	}

	body := map[string]interface{}{"status": string(res.Status)}
	if res.Status == domain.StatusSettled {
		body["signature"] = res.Signature
		if res.Intent.SettledAt != nil {
			body["settled_at"] = res.Intent.SettledAt.Unix()
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleClaimConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet       string `json:"wallet" validate:"required"`
		FeeSignature string `json:"fee_signature" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "wallet & fee_signature required")
		return
	}

	job, err := s.claims.Confirm(r.Context(), req.Wallet, req.FeeSignature)
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrEarlyClaimDisabled),
			errors.Is(err, claim.ErrInvalidAddress),
			errors.Is(err, claim.ErrInvalidSignature):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Printf("claim confirm failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

func (s *Server) handleClaimStatus(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	st, err := s.claims.StatusFor(r.Context(), wallet)
	if err != nil {
		if errors.Is(err, claim.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Printf("claim status failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"wallet":         st.Wallet,
		"pending_tokens": st.Claimable,
	})
}
