package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jdcastano06/FlowNote/internal/auth"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps application errors to HTTP status codes and a stable
// JSON shape. Internal details never leak to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	code := apperrors.CodeInternal

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		code = appErr.Code
		if status < http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	log := trace.Logger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		log.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  string(code),
	})
}

// requireUser pulls the authenticated user off the context. Auth middleware
// guarantees presence on API routes; a miss is a programming error.
func requireUser(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	u, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "not authenticated"))
		return auth.User{}, false
	}
	return u, true
}

// pathID parses the {id} path segment as an ObjectID.
func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		return primitive.NilObjectID, apperrors.New(apperrors.CodeInvalidArgument, "invalid id")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid request body")
	}
	return nil
}
