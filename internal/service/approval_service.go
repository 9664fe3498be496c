package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
	"github.com/agrifield/be-fs-liquidations/internal/hierarchy"
	"github.com/agrifield/be-fs-liquidations/internal/repository"
	"github.com/agrifield/be-fs-liquidations/pkg/errors"
	"github.com/agrifield/be-fs-liquidations/pkg/logger"
)

// RecordStore is the persistence contract the approval service
// depends on. ApplyApproval must be atomic relative to other writers:
// the write lands only when the stored status still equals
// expectedStatus, otherwise the store returns ErrCodeConflict.
type RecordStore interface {
	Get(ctx context.Context, key repository.RecordKey) (*repository.Record, error)
	List(ctx context.Context, filter repository.Filter, limit, offset int) ([]*repository.Record, int64, error)
	ApplyApproval(ctx context.Context, key repository.RecordKey, expectedStatus, newStatus flow.Status, approval repository.Approval) (*repository.Record, error)
	UpdateFields(ctx context.Context, key repository.RecordKey, patch repository.FieldPatch, editorTag string) (*repository.Record, error)
}

// Notifier publishes record lifecycle events. Implementations must be
// non-fatal: a failed publish never affects the operation outcome.
type Notifier interface {
	PublishRecordEvent(ctx context.Context, eventType string, record *repository.Record, actorTag string)
}

// Notification event types.
const (
	EventRecordApproved  = "record_approved"
	EventRecordFinalized = "record_finalized"
	EventRecordEdited    = "record_edited"
)

// ApprovalService implements the approval state machine and the edit
// gate over a single injected flow configuration.
type ApprovalService struct {
	flow      *flow.Config
	store     RecordStore
	hierarchy *hierarchy.Table
	notifier  Notifier
	log       *logger.Logger
	now       func() time.Time
}

// NewApprovalService creates a new ApprovalService. notifier may be
// nil when no broker is configured.
func NewApprovalService(
	flowCfg *flow.Config,
	store RecordStore,
	hier *hierarchy.Table,
	notifier Notifier,
	log *logger.Logger,
) *ApprovalService {
	return &ApprovalService{
		flow:      flowCfg,
		store:     store,
		hierarchy: hier,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// ── Approve ───────────────────────────────────────────────────────────────────

// ApproveRequest identifies the record, the acting role and the actor.
type ApproveRequest struct {
	PhoneNumber string
	RecordDate  string
	Role        flow.Role
	Actor       string
}

// Approve advances a record one step along the status flow.
//
// Validation order, first failure wins: role membership, record
// existence, current status known and not terminal, turn adjacency
// (fast-track role excepted), no duplicate (actor, role) approval.
// The write is a single compare-and-set on the expected prior status;
// a lost race surfaces ErrCodeConflict and the caller re-runs the
// whole sequence against the now-current record.
func (s *ApprovalService) Approve(ctx context.Context, req *ApproveRequest) (*repository.Record, error) {
	if !s.flow.HasRole(req.Role) {
		return nil, errors.Newf(errors.ErrCodeInvalidRole, "unknown role %q", req.Role)
	}
	if req.Actor == "" {
		return nil, errors.InvalidInput("user", "actor name is required")
	}

	key := repository.RecordKey{PhoneNumber: req.PhoneNumber, RecordDate: req.RecordDate}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	nextStatus, err := s.nextStatusFor(rec, req.Role)
	if err != nil {
		return nil, err
	}

	if rec.HasApprovalBy(req.Actor, req.Role) {
		return nil, errors.Newf(errors.ErrCodeDuplicateApproval,
			"%s (%s) already approved this record", req.Actor, req.Role)
	}

	approval := repository.Approval{Actor: req.Actor, Role: req.Role, At: s.now()}
	updated, err := s.store.ApplyApproval(ctx, key, rec.Status, nextStatus, approval)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("record", key.String()).
		Str("role", string(req.Role)).
		Str("from", string(rec.Status)).
		Str("to", string(updated.Status)).
		Msg("Record approved")

	event := EventRecordApproved
	if s.flow.IsTerminal(updated.Status) {
		event = EventRecordFinalized
	}
	s.publish(ctx, event, updated, approval.Tag())

	return updated, nil
}

// nextStatusFor computes the status req.Role would advance rec to,
// enforcing the status-known, not-terminal and turn-adjacency rules.
func (s *ApprovalService) nextStatusFor(rec *repository.Record, role flow.Role) (flow.Status, error) {
	idx := s.flow.IndexOf(rec.Status)
	if idx < 0 {
		return "", errors.Newf(errors.ErrCodeInvalidStatus, "unrecognized record status %q", rec.Status)
	}
	if s.flow.IsTerminal(rec.Status) {
		return "", errors.New(errors.ErrCodeAlreadyFinalized, "record is already fully approved")
	}

	output, _ := s.flow.OutputFor(role)
	if s.flow.IsFastTrack(role) {
		// Fast-track final sign-off bypasses adjacency, nothing else.
		return output, nil
	}

	expected, ok := s.flow.Next(rec.Status)
	if !ok || output != expected {
		return "", errors.Newf(errors.ErrCodeOutOfTurn,
			"not your turn: record at %q awaits %q, role %s produces %q",
			rec.Status, expected, role, output)
	}
	return output, nil
}

// ── Edit ──────────────────────────────────────────────────────────────────────

// EditRequest carries a whitelisted field patch for a record.
type EditRequest struct {
	PhoneNumber string
	RecordDate  string
	Role        flow.Role
	Actor       string
	Patch       repository.FieldPatch
}

// ApplyEdit overwrites the patch's descriptive fields on a
// non-terminal record. Status and the approval trail are never
// touched by an edit.
func (s *ApprovalService) ApplyEdit(ctx context.Context, req *EditRequest) (*repository.Record, error) {
	key := repository.RecordKey{PhoneNumber: req.PhoneNumber, RecordDate: req.RecordDate}

	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.flow.IsTerminal(rec.Status) {
		return nil, errors.New(errors.ErrCodeAlreadyFinalized, "cannot edit a fully approved record")
	}
	if req.Patch.IsEmpty() {
		return nil, errors.New(errors.ErrCodeEmptyPatch, "nothing to update")
	}

	editorTag := fmt.Sprintf("%s (%s)", req.Actor, req.Role)
	updated, err := s.store.UpdateFields(ctx, key, req.Patch, editorTag)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("record", key.String()).
		Str("edited_by", editorTag).
		Msg("Record edited")

	s.publish(ctx, EventRecordEdited, updated, editorTag)

	return updated, nil
}

// ── List ──────────────────────────────────────────────────────────────────────

// ListRequest narrows and scopes a record listing. ViewerKey and
// ViewerRole, when both set, restrict results to records belonging to
// the viewer's subordinate actors per the org chart.
type ListRequest struct {
	Status     *flow.Status
	Zone       *string
	FromDate   *string
	ToDate     *string
	ViewerKey  string
	ViewerRole flow.Role
	Page       int
	PageSize   int
}

// ListRecords returns records newest first with the total count.
func (s *ApprovalService) ListRecords(ctx context.Context, req *ListRequest) ([]*repository.Record, int64, error) {
	filter := repository.Filter{
		Status:   req.Status,
		Zone:     req.Zone,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	}

	if req.ViewerKey != "" && req.ViewerRole != "" {
		if !s.flow.HasRole(req.ViewerRole) {
			return nil, 0, errors.Newf(errors.ErrCodeInvalidRole, "unknown role %q", req.ViewerRole)
		}
		filter.PhoneNumbers = s.hierarchy.SubordinateActorKeys(req.ViewerKey, req.ViewerRole)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 || size > 500 {
		size = 100
	}

	return s.store.List(ctx, filter, size, (page-1)*size)
}

// GetRecord returns a single record by key.
func (s *ApprovalService) GetRecord(ctx context.Context, phoneNumber, recordDate string) (*repository.Record, error) {
	return s.store.Get(ctx, repository.RecordKey{PhoneNumber: phoneNumber, RecordDate: recordDate})
}

// ── internal helpers ──────────────────────────────────────────────────────────

// publish emits a notification event; failures are the notifier's
// problem, never the caller's.
func (s *ApprovalService) publish(ctx context.Context, event string, rec *repository.Record, actorTag string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishRecordEvent(ctx, event, rec, actorTag)
}
