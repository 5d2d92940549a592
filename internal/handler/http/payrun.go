package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
	"github.com/kerjapay/payroll-backend-go/internal/handler/http/response"
)

type PayrunHandler interface {
	// Lifecycle
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Compute(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	MarkDone(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	// Payslips
	ListPayslips(w http.ResponseWriter, r *http.Request)
	RecomputePayslip(w http.ResponseWriter, r *http.Request)

	// Deduction settings
	GetDeductionSettings(w http.ResponseWriter, r *http.Request)
	UpdateDeductionSettings(w http.ResponseWriter, r *http.Request)
}

type payrunHandlerImpl struct {
	payrunService payrun.Service
}

func NewPayrunHandler(payrunService payrun.Service) PayrunHandler {
	return &payrunHandlerImpl{payrunService: payrunService}
}

// ========== LIFECYCLE ==========

func (h *payrunHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req payrun.CreatePayrunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrunService.CreatePayrun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payrun created", result)
}

func (h *payrunHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payrun ID is required", nil)
		return
	}

	result, err := h.payrunService.GetPayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := payrun.ListPayrunsFilter{}

	if v := r.URL.Query().Get("period_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid period_year", nil)
			return
		}
		filter.PeriodYear = &year
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	result, err := h.payrunService.ListPayruns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
	})
}

func (h *payrunHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payrun ID is required", nil)
		return
	}

	result, err := h.payrunService.ComputePayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun computed", result)
}

func (h *payrunHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrunService.ValidatePayrun, "Payrun validated")
}

func (h *payrunHandlerImpl) MarkDone(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrunService.MarkPayrunDone, "Payrun marked done")
}

func (h *payrunHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrunService.CancelPayrun, "Payrun cancelled")
}

func (h *payrunHandlerImpl) transition(
	w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id string) (payrun.PayrunResponse, error),
	message string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payrun ID is required", nil)
		return
	}

	result, err := op(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

// ========== PAYSLIPS ==========

func (h *payrunHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payrun ID is required", nil)
		return
	}

	result, err := h.payrunService.ListPayslips(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) RecomputePayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	result, err := h.payrunService.RecomputePayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip recomputed", result)
}

// ========== DEDUCTION SETTINGS ==========

func (h *payrunHandlerImpl) GetDeductionSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrunService.GetDeductionSettings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) UpdateDeductionSettings(w http.ResponseWriter, r *http.Request) {
	var req payrun.UpdateDeductionSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrunService.UpdateDeductionSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
