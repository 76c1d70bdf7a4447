package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sealbox/sealbox/internal/lifecycle"
	"github.com/sealbox/sealbox/internal/logging"
	"github.com/sealbox/sealbox/pkg/schema"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, schema.NewError(schema.ErrCodeValidation, "request body too large or unreadable").WithCause(err))
		return
	}

	req, err := s.deps.Validator.ValidateCreate(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key, err := s.deps.Service.Create(ctx, lifecycle.CreateInput{
		Secret:     req.Secret,
		Passphrase: req.Passphrase,
		TTLSeconds: req.TTLSeconds,
		Origin:     logging.Origin(ctx),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, schema.CreateSecretResponse{SecretKey: key})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plaintext, err := s.deps.Service.Read(ctx, r.PathValue("key"), logging.Origin(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, schema.ReadSecretResponse{Secret: plaintext})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	passphrase := r.URL.Query().Get("passphrase")
	if err := s.deps.Service.Delete(ctx, r.PathValue("key"), passphrase, logging.Origin(ctx)); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, schema.DeleteSecretResponse{Status: schema.StatusDeleted})
}

// writeError maps the error taxonomy to HTTP statuses. Internal faults
// (ciphertext integrity, store or cache I/O) are reported as a generic
// server error with no detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch schema.CodeOf(err) {
	case schema.ErrCodeValidation:
		writeJSON(w, http.StatusBadRequest, schema.ErrorResponse{Error: "invalid request"})
	case schema.ErrCodeNotFound:
		writeJSON(w, http.StatusNotFound, schema.ErrorResponse{Error: "secret not found"})
	case schema.ErrCodeForbidden:
		writeJSON(w, http.StatusForbidden, schema.ErrorResponse{Error: "invalid passphrase"})
	default:
		s.deps.Logger.ErrorContext(r.Context(), "internal error",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, schema.ErrorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
