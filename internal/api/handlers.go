package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/chat"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/emi"
	"github.com/kalambet/loanbot/internal/profile"
)

// Request bodies use pointers so a missing field fails "required" instead
// of silently decoding to zero.

type eligibilityRequest struct {
	Age              *int     `json:"age" validate:"required,gte=0,lte=120"`
	Income           *float64 `json:"income" validate:"required,gte=0"`
	CIBILScore       *int     `json:"cibil_score" validate:"required,gte=300,lte=900"`
	EmploymentStatus string   `json:"employment_status" validate:"required"`
	LoanType         string   `json:"loan_type" validate:"required"`
}

type emiRequest struct {
	Principal   *float64 `json:"principal" validate:"required,gt=0"`
	AnnualRate  *float64 `json:"annual_rate" validate:"required,gt=0"`
	TenureYears *int     `json:"tenure_years" validate:"required,gt=0,lte=50"`
}

type chatRequest struct {
	Message   *string `json:"message" validate:"required,max=4000"`
	SessionID string  `json:"session_id"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type chatHistoryResponse struct {
	SessionID string      `json:"session_id"`
	History   []chat.Turn `json:"history"`
}

type dnaRequest struct {
	Income           *float64 `json:"income" validate:"required,gte=0"`
	Expenses         *float64 `json:"expenses" validate:"required,gte=0"`
	ExistingEMI      *float64 `json:"existing_emi" validate:"required,gte=0"`
	CIBILScore       *int     `json:"cibil_score" validate:"required,gte=300,lte=900"`
	Savings          *float64 `json:"savings" validate:"required,gte=0"`
	EmploymentStatus string   `json:"employment_status" validate:"required"`
	Goal             string   `json:"goal" validate:"required"`
}

func handleListLoans(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.All())
	}
}

func handleGetLoan(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ := chi.URLParam(r, "type")
		p, ok := c.Lookup(typ)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "%s", eligibility.NotFoundMessage(typ))
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleEligibility(ev *eligibility.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eligibilityRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, ev.Evaluate(eligibility.Request{
			Age:              *req.Age,
			Income:           *req.Income,
			CIBILScore:       *req.CIBILScore,
			EmploymentStatus: req.EmploymentStatus,
			LoanType:         req.LoanType,
		}))
	}
}

func handleEMI(w http.ResponseWriter, r *http.Request) {
	var req emiRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, emi.Compute(*req.Principal, *req.AnnualRate, *req.TenureYears))
}

func handleChat(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		reply, id, err := svc.Respond(r.Context(), req.SessionID, *req.Message)
		if err != nil {
			logInternal(r, "chat turn failed", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply, SessionID: id})
	}
}

func handleChatHistory(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "session_id"))
		history, err := svc.History(r.Context(), id)
		if err != nil {
			logInternal(r, "reading chat history", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, chatHistoryResponse{SessionID: id, History: history})
	}
}

func handleChatClear(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "session_id"))
		if err := svc.ClearSession(r.Context(), id); err != nil {
			logInternal(r, "clearing chat session", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func handleDNA(svc DNAService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dnaRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, svc.Synthesize(r.Context(), profile.Input{
			Income:           *req.Income,
			Expenses:         *req.Expenses,
			ExistingEMI:      *req.ExistingEMI,
			CIBILScore:       *req.CIBILScore,
			Savings:          *req.Savings,
			EmploymentStatus: req.EmploymentStatus,
			Goal:             req.Goal,
		}))
	}
}
