// Package handler wires document registry endpoints to the document service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"docseal/internal/document"
	"docseal/pkg/apperrors"
	"docseal/pkg/platform/httputil"
	"docseal/pkg/requestcontext"
)

// maxUploadBytes caps document uploads. PDFs past this size are rejected
// before buffering.
const maxUploadBytes = 16 << 20

// Service defines the document operations the transport layer depends on.
type Service interface {
	Register(ctx context.Context, data []byte, filename string) (*document.RegisterResult, error)
	Verify(ctx context.Context, req document.VerifyRequest) (*document.VerifyResult, error)
}

// Handler is the thin HTTP layer over the document service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/process-document", h.HandleProcess)
	r.Post("/api/verify-document", h.HandleVerify)
}

// verifyBody is the JSON alternative to a multipart verification upload.
type verifyBody struct {
	Identifier  string `json:"verification_id"`
	ContentHash string `json:"document_hash"`
}

// HandleProcess handles POST /api/process-document: a multipart upload under
// the "file" field. Duplicate content is a 200 with is_unique=false, not an
// error.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := h.readUpload(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Register(ctx, data, filename)
	if err != nil {
		h.logError(ctx, "document registration failed", filename, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleVerify handles POST /api/verify-document. Multipart requests verify
// by file content; JSON requests verify by verification_id or document_hash.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req document.VerifyRequest

	if isMultipart(r) {
		data, _, err := h.readUpload(w, r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req.FileContent = data
	} else {
		var body verifyBody
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&body); err != nil {
			httputil.WriteError(w, apperrors.New(apperrors.CodeInvalidFormat, "request body is not valid JSON"))
			return
		}
		req.Identifier = strings.TrimSpace(body.Identifier)
		req.ContentHash = strings.TrimSpace(body.ContentHash)
	}

	result, err := h.service.Verify(ctx, req)
	if err != nil {
		h.logError(ctx, "document verification failed", "", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// readUpload extracts the "file" multipart field, bounded by maxUploadBytes.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apperrors.New(apperrors.CodeMissingInput, "multipart field 'file' is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", apperrors.New(apperrors.CodeInvalidFormat, "file exceeds the upload size limit")
		}
		return nil, "", apperrors.New(apperrors.CodeInvalidFormat, "request is not a valid multipart upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.New(apperrors.CodeInvalidFormat, "could not read uploaded file")
	}
	return data, header.Filename, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func (h *Handler) logError(ctx context.Context, msg, filename string, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		// Caller mistakes are request-level noise, not server errors.
		h.logger.InfoContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"filename", filename,
			"code", appErr.Code,
		)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"filename", filename,
		"error", err,
	)
}
