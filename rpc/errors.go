package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

// errBadRequest marks request decoding failures raised by the handlers
// themselves, before any engine is consulted.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(err error) error {
	if err == nil {
		return nil
	}
	return errBadRequest{msg: err.Error()}
}

func statusForKind(kind common.Kind) int {
	switch kind {
	case common.KindConfig:
		return http.StatusBadRequest
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindState:
		return http.StatusConflict
	case common.KindLimitExceeded:
		return http.StatusTooManyRequests
	case common.KindResource:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())}
	var bad errBadRequest
	status := http.StatusInternalServerError
	if errors.As(err, &bad) {
		status = http.StatusBadRequest
	} else if kind := common.KindOf(err); kind != common.KindUnknown {
		status = statusForKind(kind)
		body.Kind = kind.String()
		body.Code = common.CodeOf(err)
	} else {
		body.Error = "internal error"
	}
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context()).Error("request failed", "error", err.Error())
	}
	writeJSON(w, status, body)
}
