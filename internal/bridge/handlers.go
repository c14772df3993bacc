package bridge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/paybridge/internal/common"
)

// Handler exposes the confirmation endpoint.
type Handler struct {
	Svc *Service
}

// Confirm accepts a completed-payment payload and responds with the created
// order or a structured failure.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "bridge service not configured", nil)
		return
	}
	var payload ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	out, err := h.Svc.Confirm(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONOK(w, http.StatusOK, "order", out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = common.CodeBadRequest
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, err.Error(), nil)
}
