package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shorturl/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string) (*entity.URL, bool, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	DeactivateURL(ctx context.Context, shortCode string) error
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// decodeURLRequest reads and validates the request body, writing a 400 response on failure.
func (h *urlHandler) decodeURLRequest(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, emptyRequestBodyResponse)
			return req, false
		}

		render.JSON(w, r, invalidRequestBodyResponse)
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return req, false
	}

	return req, true
}

// respondError maps use case errors to responses. Unexpected errors are attached to the
// request log entry.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, entity.ErrURLNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
		return
	}

	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, serverErrorResponse(err))
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	url, created, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if created {
		render.Status(r, http.StatusCreated)
	} else {
		render.Status(r, http.StatusOK)
	}
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) modifyURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ModifyURL(r.Context(), shortCode, req.URL)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) deactivateURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	if err := h.useCase.DeactivateURL(r.Context(), shortCode); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}
