package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

const (
	headerActorID  = "X-Actor-Id"
	headerRole     = "X-Actor-Role"
	headerAgencyID = "X-Agency-Id"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// actorFrom reads the caller forwarded by the authentication proxy.
func actorFrom(r *http.Request) (business.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(headerActorID))
	role, ok := business.ParseRole(r.Header.Get(headerRole))
	if id == "" || !ok {
		return business.Actor{}, business.ErrorUnauthenticated
	}
	return business.Actor{
		ID:       id,
		Role:     role,
		AgencyID: strings.TrimSpace(r.Header.Get(headerAgencyID)),
	}, nil
}

func httpStatusOf(code codes.Code) (int, string) {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "validation_failed"
	case codes.AlreadyExists:
		return http.StatusConflict, "conflict"
	case codes.PermissionDenied:
		return http.StatusForbidden, "forbidden"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthenticated"
	case codes.NotFound:
		return http.StatusNotFound, "not_found"
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed, "precondition_failed"
	case codes.Unavailable:
		return http.StatusBadGateway, "gateway_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (rs *RentServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	st, ok := status.FromError(err)
	if !ok {
		st = status.New(codes.Internal, "Internal server error")
	}
	httpStatus, code := httpStatusOf(st.Code())
	if httpStatus == http.StatusInternalServerError {
		rs.Logger.Warn(r.Context(), err, "request failed", "path", r.URL.Path)
	}
	writeJSON(w, httpStatus, errorResponse{Code: code, Message: st.Message()})
}

func writeJSON(w http.ResponseWriter, httpStatus int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return status.Error(codes.InvalidArgument, "Request body is not valid JSON")
	}
	return nil
}
