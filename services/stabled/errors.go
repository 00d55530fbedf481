package stabled

import (
	"encoding/json"
	"errors"
	"net/http"

	"stablecore/core/pricing"
	nativecommon "stablecore/native/common"
	"stablecore/native/stable"
)

type errorBody struct {
	Error        string `json:"error"`
	HealthFactor string `json:"healthFactor,omitempty"`
}

type okBody struct {
	Status string `json:"status"`
}

// writeEngineError maps the engine's failure kinds onto HTTP statuses and
// surfaces the computed health factor when one accompanies the error, so
// callers can retry with adjusted amounts.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stable.ErrInvalidAmount),
		errors.Is(err, stable.ErrAssetNotAllowed),
		errors.Is(err, stable.ErrLengthMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, stable.ErrInsufficientCollateral),
		errors.Is(err, stable.ErrInsufficientDebt),
		errors.Is(err, stable.ErrTransferFailed),
		errors.Is(err, stable.ErrMintFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, stable.ErrHealthFactorBroken),
		errors.Is(err, stable.ErrHealthFactorNotBroken),
		errors.Is(err, stable.ErrHealthFactorNotImproved):
		status = http.StatusConflict
	case errors.Is(err, pricing.ErrStalePrice),
		errors.Is(err, pricing.ErrUnavailable),
		errors.Is(err, stable.ErrReentrant),
		errors.Is(err, nativecommon.ErrModulePaused):
		status = http.StatusServiceUnavailable
	}

	body := errorBody{Error: err.Error()}
	var hfErr *stable.HealthFactorBrokenError
	if errors.As(err, &hfErr) && hfErr.HealthFactor != nil {
		body.HealthFactor = hfErr.HealthFactor.String()
	}
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, okBody{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
