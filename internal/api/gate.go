package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/api/middleware"
	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/metrics"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

const ownershipMessage = "Email is required and must match the token email"

// gate enforces p before next runs. It answers 401 without a token, 403 for
// a bad token and 400 when the request's email is not the token's. On
// success the identity is attached to the request context.
func (r *Router) gate(p Policy, next http.HandlerFunc) http.HandlerFunc {
	if !p.RequiresAuth && !p.RequiresOwnershipMatch {
		return next
	}

	return func(w http.ResponseWriter, req *http.Request) {
		id, err := r.app.Verifier.Verify(auth.TokenFromRequest(req))
		if err != nil {
			r.reject(w, req, err)
			return
		}
		req = req.WithContext(auth.WithIdentity(req.Context(), id))

		if p.RequiresOwnershipMatch {
			supplied, err := suppliedEmail(req, p.ownerSource(req.Method))
			if err != nil {
				BadRequest(w, req, "invalid request body")
				return
			}
			if err := auth.CheckOwnership(id, supplied); err != nil {
				r.app.Metrics.RecordAuthRejection(metrics.ReasonOwnership)
				slog.Warn("ownership mismatch",
					"identity", id.Email,
					"supplied", supplied,
					"path", req.URL.Path,
					"request_id", middleware.GetRequestID(req.Context()),
				)
				BadRequest(w, req, ownershipMessage)
				return
			}
		}

		next(w, req)
	}
}

func (r *Router) reject(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		r.app.Metrics.RecordAuthRejection(metrics.ReasonMissingToken)
		Unauthorized(w, req, domain.ErrUnauthenticated.Error())
		return
	}
	r.app.Metrics.RecordAuthRejection(metrics.ReasonInvalidToken)
	slog.Debug("token rejected", "error", err, "request_id", middleware.GetRequestID(req.Context()))
	Forbidden(w, req, domain.ErrForbidden.Error())
}

// suppliedEmail reads the owner email from the query string or JSON body.
// The body is restored so the handler can decode it again.
func suppliedEmail(req *http.Request, source string) (string, error) {
	if source == config.OwnerFromQuery {
		return req.URL.Query().Get(domain.FieldEmail), nil
	}

	if req.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	req.Body.Close()
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))

	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	var body struct {
		Email any `json:"email"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", err
	}
	email, _ := body.Email.(string)
	return email, nil
}
