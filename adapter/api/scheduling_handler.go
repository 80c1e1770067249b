package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reserva/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/pkg/observability"
	"github.com/google/uuid"
)

// SchedulingHandler handles scheduling API requests.
type SchedulingHandler struct {
	checkAvailability    *queries.CheckAvailabilityHandler
	getCommitment        *queries.GetCommitmentHandler
	listCommitments      *queries.ListCommitmentsHandler
	listHistory          *queries.ListCommitmentHistoryHandler
	createCommitment     *commands.CreateCommitmentHandler
	rescheduleCommitment *commands.RescheduleCommitmentHandler
	cancelCommitment     *commands.CancelCommitmentHandler
	confirmCommitment    *commands.ConfirmCommitmentHandler
	addBlock             *commands.AddBlockHandler
	removeBlock          *commands.RemoveBlockHandler
	logger               *slog.Logger
	metrics              observability.Metrics
}

// SchedulingHandlerConfig holds dependencies for the scheduling handler.
type SchedulingHandlerConfig struct {
	CheckAvailability    *queries.CheckAvailabilityHandler
	GetCommitment        *queries.GetCommitmentHandler
	ListCommitments      *queries.ListCommitmentsHandler
	ListHistory          *queries.ListCommitmentHistoryHandler
	CreateCommitment     *commands.CreateCommitmentHandler
	RescheduleCommitment *commands.RescheduleCommitmentHandler
	CancelCommitment     *commands.CancelCommitmentHandler
	ConfirmCommitment    *commands.ConfirmCommitmentHandler
	AddBlock             *commands.AddBlockHandler
	RemoveBlock          *commands.RemoveBlockHandler
	Logger               *slog.Logger

	// Metrics defaults to a no-op collector when unset.
	Metrics observability.Metrics
}

// NewSchedulingHandler creates a new scheduling handler.
func NewSchedulingHandler(cfg SchedulingHandlerConfig) *SchedulingHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &SchedulingHandler{
		checkAvailability:    cfg.CheckAvailability,
		getCommitment:        cfg.GetCommitment,
		listCommitments:      cfg.ListCommitments,
		listHistory:          cfg.ListHistory,
		createCommitment:     cfg.CreateCommitment,
		rescheduleCommitment: cfg.RescheduleCommitment,
		cancelCommitment:     cfg.CancelCommitment,
		confirmCommitment:    cfg.ConfirmCommitment,
		addBlock:             cfg.AddBlock,
		removeBlock:          cfg.RemoveBlock,
		logger:               cfg.Logger,
		metrics:              cfg.Metrics,
	}
}

// CheckAvailability handles POST /api/v1/availability/check
func (h *SchedulingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResourceID uuid.UUID `json:"resource_id"`
		Start      time.Time `json:"start"`
		End        time.Time `json:"end"`
		ExcludeID  uuid.UUID `json:"exclude_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	verdict, err := h.checkAvailability.Handle(r.Context(), queries.CheckAvailabilityQuery{
		ResourceID: req.ResourceID,
		Start:      req.Start,
		End:        req.End,
		ExcludeID:  req.ExcludeID,
	})
	if err != nil {
		h.writeDomainError(w, "availability check failed", err)
		return
	}

	h.metrics.Counter(observability.MetricAvailabilityChecks, 1)
	if !verdict.Available {
		h.metrics.Counter(observability.MetricAvailabilityConflicts, 1)
	}
	writeJSON(w, http.StatusOK, verdict)
}

// CreateCommitment handles POST /api/v1/commitments
func (h *SchedulingHandler) CreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResourceID uuid.UUID `json:"resource_id"`
		Start      time.Time `json:"start"`
		End        time.Time `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := identity.ActorFromContext(r.Context())
	commitment, err := h.createCommitment.Handle(r.Context(), commands.CreateCommitmentCommand{
		ResourceID: req.ResourceID,
		Start:      req.Start,
		End:        req.End,
		ActorID:    actor.ID,
	})
	if err != nil {
		h.writeDomainError(w, "failed to create commitment", err)
		return
	}

	h.metrics.Counter(observability.MetricCommitmentsCreated, 1)
	writeJSON(w, http.StatusCreated, queries.NewCommitmentDTO(commitment))
}

// RescheduleCommitment handles POST /api/v1/commitments/{commitmentID}/reschedule
func (h *SchedulingHandler) RescheduleCommitment(w http.ResponseWriter, r *http.Request) {
	commitmentID, ok := pathUUID(w, r, "commitmentID")
	if !ok {
		return
	}

	var req struct {
		Start  time.Time `json:"start"`
		End    time.Time `json:"end"`
		Reason string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	commitment, err := h.rescheduleCommitment.Handle(r.Context(), commands.RescheduleCommitmentCommand{
		CommitmentID: commitmentID,
		NewStart:     req.Start,
		NewEnd:       req.End,
		Reason:       req.Reason,
		Actor:        identity.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, "failed to reschedule commitment", err)
		return
	}

	h.metrics.Counter(observability.MetricCommitmentsRescheduled, 1)
	writeJSON(w, http.StatusOK, queries.NewCommitmentDTO(commitment))
}

// CancelCommitment handles POST /api/v1/commitments/{commitmentID}/cancel
func (h *SchedulingHandler) CancelCommitment(w http.ResponseWriter, r *http.Request) {
	commitmentID, ok := pathUUID(w, r, "commitmentID")
	if !ok {
		return
	}

	commitment, err := h.cancelCommitment.Handle(r.Context(), commands.CancelCommitmentCommand{
		CommitmentID: commitmentID,
		Actor:        identity.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, "failed to cancel commitment", err)
		return
	}

	h.metrics.Counter(observability.MetricCommitmentsCancelled, 1)
	writeJSON(w, http.StatusOK, queries.NewCommitmentDTO(commitment))
}

// ConfirmCommitment handles POST /api/v1/commitments/{commitmentID}/confirm
func (h *SchedulingHandler) ConfirmCommitment(w http.ResponseWriter, r *http.Request) {
	commitmentID, ok := pathUUID(w, r, "commitmentID")
	if !ok {
		return
	}

	var req struct {
		Party string `json:"party"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	party := domain.ConfirmingParty(req.Party)
	if party != domain.PartyOwner && party != domain.PartyCounterpart {
		writeError(w, http.StatusBadRequest, "Party must be 'owner' or 'counterpart'")
		return
	}

	commitment, err := h.confirmCommitment.Handle(r.Context(), commands.ConfirmCommitmentCommand{
		CommitmentID: commitmentID,
		Party:        party,
		ActorID:      identity.ActorFromContext(r.Context()).ID,
	})
	if err != nil {
		h.writeDomainError(w, "failed to confirm commitment", err)
		return
	}

	h.metrics.Counter(observability.MetricCommitmentsConfirmed, 1)
	writeJSON(w, http.StatusOK, queries.NewCommitmentDTO(commitment))
}

// GetCommitment handles GET /api/v1/commitments/{commitmentID}
func (h *SchedulingHandler) GetCommitment(w http.ResponseWriter, r *http.Request) {
	commitmentID, ok := pathUUID(w, r, "commitmentID")
	if !ok {
		return
	}

	dto, err := h.getCommitment.Handle(r.Context(), queries.GetCommitmentQuery{CommitmentID: commitmentID})
	if err != nil {
		h.writeDomainError(w, "failed to get commitment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ListCommitments handles GET /api/v1/commitments?resource_id=&from=&to=
func (h *SchedulingHandler) ListCommitments(w http.ResponseWriter, r *http.Request) {
	resourceID, err := uuid.Parse(r.URL.Query().Get("resource_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'resource_id' must be a UUID")
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'from' must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'to' must be RFC3339")
		return
	}

	dtos, err := h.listCommitments.Handle(r.Context(), queries.ListCommitmentsQuery{
		ResourceID: resourceID,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.writeDomainError(w, "failed to list commitments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"commitments": dtos})
}

// ListHistory handles GET /api/v1/commitments/{commitmentID}/history
func (h *SchedulingHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	commitmentID, ok := pathUUID(w, r, "commitmentID")
	if !ok {
		return
	}

	entries, err := h.listHistory.Handle(r.Context(), queries.ListCommitmentHistoryQuery{CommitmentID: commitmentID})
	if err != nil {
		h.writeDomainError(w, "failed to list commitment history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// blockResponse is the API shape of a block.
type blockResponse struct {
	ID          uuid.UUID `json:"id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	StartMinute *int      `json:"start_minute,omitempty"`
	EndMinute   *int      `json:"end_minute,omitempty"`
	Reason      string    `json:"reason"`
}

// AddBlock handles POST /api/v1/blocks
func (h *SchedulingHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResourceID  uuid.UUID `json:"resource_id"`
		StartDate   time.Time `json:"start_date"`
		EndDate     time.Time `json:"end_date"`
		StartMinute *int      `json:"start_minute"`
		EndMinute   *int      `json:"end_minute"`
		Reason      string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	block, err := h.addBlock.Handle(r.Context(), commands.AddBlockCommand{
		ResourceID:  req.ResourceID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Reason:      req.Reason,
		Actor:       identity.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, "failed to add block", err)
		return
	}

	resp := blockResponse{
		ID:         block.ID(),
		ResourceID: block.ResourceID(),
		StartDate:  block.StartDate(),
		EndDate:    block.EndDate(),
		Reason:     block.Reason(),
	}
	if window := block.Window(); window != nil {
		resp.StartMinute = &window.StartMinute
		resp.EndMinute = &window.EndMinute
	}
	h.metrics.Counter(observability.MetricBlocksAdded, 1)
	writeJSON(w, http.StatusCreated, resp)
}

// RemoveBlock handles DELETE /api/v1/blocks/{blockID}
func (h *SchedulingHandler) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}

	err := h.removeBlock.Handle(r.Context(), commands.RemoveBlockCommand{
		BlockID: blockID,
		Actor:   identity.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, "failed to remove block", err)
		return
	}

	h.metrics.Counter(observability.MetricBlocksRemoved, 1)
	w.WriteHeader(http.StatusNoContent)
}

// pathUUID parses a UUID path segment, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Path parameter '"+name+"' must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// writeDomainError maps application errors onto HTTP status codes. Anything
// unrecognized is treated as the storage layer being unreachable: the
// operation aborted whole and the caller may retry.
func (h *SchedulingHandler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   http.StatusText(http.StatusConflict),
			"message": conflictErr.Error(),
			"reasons": conflictErr.Reasons,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrInvalidClockRange),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, commands.ErrWindowInPast):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrResourceNotFound),
		errors.Is(err, domain.ErrCommitmentNotFound),
		errors.Is(err, domain.ErrBlockNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, identity.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrCommitmentCancelled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(message, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable, retry the request")
	}
}
