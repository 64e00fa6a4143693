// Package datahelperhttp exposes the data helper operations as JSON endpoints.
package datahelperhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/stamped-ai/ledgerprep/internal/datahelper"
	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/platform/httpx"
	"github.com/stamped-ai/ledgerprep/internal/snapshot"
	"github.com/stamped-ai/ledgerprep/jobs"
)

const (
	rateLimit  = 30
	rateWindow = time.Minute
)

// Service is the subset of datahelper.Helper served over HTTP.
type Service interface {
	GetAmountTable(ctx context.Context, tenantID string, engagementIDs ...string) (*frame.Table, error)
	AddDateInfo(tbl *frame.Table, dateColumn string) (*frame.Table, error)
	GetFlippingIDAmounts(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error)
	PrepareEngagementAmounts(ctx context.Context, tenantID, engagementID string) (*frame.Table, error)
	AccountMappings(ctx context.Context, engagementID string) (datahelper.Mappings, error)
	GetEngagementInfo(ctx context.Context, engagementID string) (frame.Record, error)
	GetOrganizationInfo(ctx context.Context, organizationID string) (frame.Record, error)
}

// SnapshotReader loads stored snapshots.
type SnapshotReader interface {
	Load(ctx context.Context, tenantID, engagementID string) (snapshot.Snapshot, error)
}

// Enqueuer schedules snapshot preparation.
type Enqueuer interface {
	EnqueueAmountsSnapshot(ctx context.Context, payload jobs.AmountsSnapshotPayload) (*asynq.TaskInfo, error)
}

// Handler wires the data helper JSON endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	snapshots SnapshotReader
	jobs      Enqueuer
	validate  *validator.Validate
}

// NewHandler constructs handler. snapshots and jobsClient may be nil, in which
// case the snapshot endpoints answer 503.
func NewHandler(logger *slog.Logger, service Service, snapshots SnapshotReader, jobsClient Enqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		snapshots: snapshots,
		jobs:      jobsClient,
		validate:  validator.New(),
	}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)
	r.Route("/api", func(r chi.Router) {
		r.Get("/engagements/{engagementID}", h.engagement)
		r.Get("/engagements/{engagementID}/mappings", h.mappings)
		r.Get("/organizations/{organizationID}", h.organization)
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Group(func(gr chi.Router) {
				gr.Use(limiter)
				gr.Get("/amounts", h.amounts)
				gr.Get("/engagements/{engagementID}/amounts", h.preparedAmounts)
				gr.Get("/engagements/{engagementID}/flipping-amounts", h.flippingAmounts)
			})
			r.Post("/engagements/{engagementID}/snapshots", h.enqueueSnapshot)
			r.Get("/engagements/{engagementID}/snapshot", h.showSnapshot)
		})
	})
}

type scopeParams struct {
	TenantID     string `validate:"required,max=128"`
	EngagementID string `validate:"required,max=128"`
}

type amountsParams struct {
	TenantID      string   `validate:"required,max=128"`
	EngagementIDs []string `validate:"dive,required,max=128"`
	DateColumn    string   `validate:"omitempty,max=128"`
}

type idParams struct {
	ID string `validate:"required,max=128"`
}

func (h *Handler) engagement(w http.ResponseWriter, r *http.Request) {
	params := idParams{ID: chi.URLParam(r, "engagementID")}
	if !h.valid(w, params) {
		return
	}
	record, err := h.service.GetEngagementInfo(r.Context(), params.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) organization(w http.ResponseWriter, r *http.Request) {
	params := idParams{ID: chi.URLParam(r, "organizationID")}
	if !h.valid(w, params) {
		return
	}
	record, err := h.service.GetOrganizationInfo(r.Context(), params.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) mappings(w http.ResponseWriter, r *http.Request) {
	params := idParams{ID: chi.URLParam(r, "engagementID")}
	if !h.valid(w, params) {
		return
	}
	mappings, err := h.service.AccountMappings(r.Context(), params.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mappings)
}

func (h *Handler) amounts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := amountsParams{
		TenantID:      chi.URLParam(r, "tenantID"),
		EngagementIDs: splitValues(query["engagement_id"]),
		DateColumn:    strings.TrimSpace(query.Get("date_column")),
	}
	if !h.valid(w, params) {
		return
	}
	tbl, err := h.service.GetAmountTable(r.Context(), params.TenantID, params.EngagementIDs...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if params.DateColumn != "" {
		if tbl, err = h.service.AddDateInfo(tbl, params.DateColumn); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, tbl)
}

func (h *Handler) preparedAmounts(w http.ResponseWriter, r *http.Request) {
	params, ok := h.scope(w, r)
	if !ok {
		return
	}
	tbl, err := h.service.PrepareEngagementAmounts(r.Context(), params.TenantID, params.EngagementID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tbl)
}

func (h *Handler) flippingAmounts(w http.ResponseWriter, r *http.Request) {
	params, ok := h.scope(w, r)
	if !ok {
		return
	}
	tbl, err := h.service.GetAmountTable(r.Context(), params.TenantID, params.EngagementID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	flips, err := h.service.GetFlippingIDAmounts(r.Context(), tbl, params.EngagementID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, flips)
}

type enqueueResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) enqueueSnapshot(w http.ResponseWriter, r *http.Request) {
	params, ok := h.scope(w, r)
	if !ok {
		return
	}
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "job queue not configured")
		return
	}
	info, err := h.jobs.EnqueueAmountsSnapshot(r.Context(), jobs.AmountsSnapshotPayload{
		TenantID:     params.TenantID,
		EngagementID: params.EngagementID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := enqueueResponse{Queue: jobs.QueueDefault}
	if info != nil {
		resp.TaskID = info.ID
		resp.Queue = info.Queue
	}
	httpx.JSON(w, http.StatusAccepted, resp)
}

func (h *Handler) showSnapshot(w http.ResponseWriter, r *http.Request) {
	params, ok := h.scope(w, r)
	if !ok {
		return
	}
	if h.snapshots == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "snapshot store not configured")
		return
	}
	snap, err := h.snapshots.Load(r.Context(), params.TenantID, params.EngagementID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (scopeParams, bool) {
	params := scopeParams{
		TenantID:     chi.URLParam(r, "tenantID"),
		EngagementID: chi.URLParam(r, "engagementID"),
	}
	return params, h.valid(w, params)
}

func (h *Handler) valid(w http.ResponseWriter, params any) bool {
	if err := h.validate.Struct(params); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields = append(fields, fmt.Sprintf("%s:%s", fieldErr.Field(), fieldErr.Tag()))
			}
		}
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(fields, ", ")))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	mapped := classify(err)
	if !errors.Is(mapped, httpx.ErrNotFound) && !errors.Is(mapped, httpx.ErrValidation) {
		h.logger.Error("data helper request",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	httpx.RespondError(w, mapped)
}

func classify(err error) error {
	switch {
	case errors.Is(err, datahelper.ErrNotFound),
		errors.Is(err, datahelper.ErrMappingNotFound),
		errors.Is(err, datahelper.ErrFSLINotFound),
		errors.Is(err, snapshot.ErrSnapshotNotFound):
		return fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error())
	case errors.Is(err, datahelper.ErrInvalidDate),
		errors.Is(err, frame.ErrColumnNotFound),
		errors.Is(err, jobs.ErrInvalidPayload):
		return fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	default:
		return err
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
