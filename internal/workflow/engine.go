package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/thierry1804/toa-permit/internal/model"
)

// referenceRetries bounds how often a failed reference allocation is
// re-attempted before ErrReferenceGeneration is surfaced.
const referenceRetries = 2

// Store is the record store the engine mutates. Implementations must make
// Update all-or-nothing per record, return ErrNotFound for unknown ids,
// and run UpdateWithReference as one atomic unit: advance the named
// sequence, let assign stamp the record, persist the record.
type Store interface {
	Get(id string) (*model.PermitModel, error)
	Update(p *model.PermitModel) error
	UpdateWithReference(p *model.PermitModel, scope string, assign func(seq int64)) error
}

// Engine owns the permit status state machine. It is the sole writer of
// the status, reference and validation/rejection/closure columns; all
// other fields pass through it untouched.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates a workflow engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Submit moves a draft into the approval chain.
func (e *Engine) Submit(id string, actor Actor) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}
	if Status(p.Status) != StatusDraft {
		return nil, invalidStateError("submit", Status(p.Status))
	}

	p.Status = string(StatusPendingChef)
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist submit: %w", err)
	}
	return p, nil
}

// ValidateByChef records the first-stage approval and hands the record to
// HSE. The actor must hold the chef de projet role.
func (e *Engine) ValidateByChef(id string, actor Actor, comment string) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}
	if Status(p.Status) != StatusPendingChef {
		return nil, invalidStateError("validate-chef", Status(p.Status))
	}
	if !actor.canValidateChef() {
		return nil, fmt.Errorf("%w: role %q cannot validate as chef de projet", ErrUnauthorized, actor.Role)
	}

	now := e.now()
	p.Status = string(StatusPendingHSE)
	p.ChefName = actor.Name
	p.ChefDate = &now
	p.ChefComment = comment
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist chef validation: %w", err)
	}
	return p, nil
}

// ValidateByHSE records the final approval and mints the external
// reference. The sequence increment and the record write happen in one
// transaction so two HSE users validating different records at the same
// moment can never draw the same number.
func (e *Engine) ValidateByHSE(id string, actor Actor, comment string) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}
	if Status(p.Status) != StatusPendingHSE {
		return nil, invalidStateError("validate-hse", Status(p.Status))
	}
	if !actor.canValidateHSE() {
		return nil, fmt.Errorf("%w: role %q cannot validate as HSE", ErrUnauthorized, actor.Role)
	}

	now := e.now()
	year := now.Year()
	p.Status = string(StatusValidated)
	p.HSEName = actor.Name
	p.HSEDate = &now
	p.HSEComment = comment

	assign := func(seq int64) {
		p.Reference = FormatReference(year, seq)
	}
	for attempt := 0; ; attempt++ {
		err = e.store.UpdateWithReference(p, ReferenceScope(year), assign)
		if err == nil {
			return p, nil
		}
		if attempt >= referenceRetries {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrReferenceGeneration, err)
}

// Reject terminates a record awaiting approval. A non-empty reason is
// required, and the actor must hold the approver role of the current
// stage. Rejected records keep an empty reference and cannot be
// resubmitted; field staff create a new record instead.
func (e *Engine) Reject(id string, actor Actor, reason string) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}

	switch Status(p.Status) {
	case StatusPendingChef:
		if !actor.canValidateChef() {
			return nil, fmt.Errorf("%w: role %q cannot reject at chef stage", ErrUnauthorized, actor.Role)
		}
	case StatusPendingHSE:
		if !actor.canValidateHSE() {
			return nil, fmt.Errorf("%w: role %q cannot reject at HSE stage", ErrUnauthorized, actor.Role)
		}
	default:
		return nil, invalidStateError("reject", Status(p.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	now := e.now()
	p.Status = string(StatusRejected)
	p.RejectedBy = actor.Name
	p.RejectedAt = &now
	p.RejectionReason = reason
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist rejection: %w", err)
	}
	return p, nil
}

// Start marks a validated permit as having active field work. Recording
// the first daily validation triggers this implicitly.
func (e *Engine) Start(id string, actor Actor) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}
	if Status(p.Status) != StatusValidated {
		return nil, invalidStateError("start", Status(p.Status))
	}

	now := e.now()
	p.Status = string(StatusInProgress)
	p.StartedBy = actor.Name
	p.StartedAt = &now
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist start: %w", err)
	}
	return p, nil
}

// Close ends the lifecycle of a validated or in-progress permit.
func (e *Engine) Close(id string, actor Actor, comment string) (*model.PermitModel, error) {
	p, err := e.load(id, actor)
	if err != nil {
		return nil, err
	}
	switch Status(p.Status) {
	case StatusValidated, StatusInProgress:
	default:
		return nil, invalidStateError("close", Status(p.Status))
	}

	now := e.now()
	p.Status = string(StatusClosed)
	p.ClosedBy = actor.Name
	p.ClosedAt = &now
	p.ClosureComment = comment
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist closure: %w", err)
	}
	return p, nil
}

// Expire terminates a validated or in-progress permit whose end date has
// passed. Invoked by the sweeper; attribution goes to the audit trail.
func (e *Engine) Expire(id string) (*model.PermitModel, error) {
	p, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	switch Status(p.Status) {
	case StatusValidated, StatusInProgress:
	default:
		return nil, invalidStateError("expire", Status(p.Status))
	}

	now := e.now()
	p.Status = string(StatusExpired)
	p.ExpiredAt = &now
	if err := e.store.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist expiry: %w", err)
	}
	return p, nil
}

// load fetches the record and refuses anonymous actors.
func (e *Engine) load(id string, actor Actor) (*model.PermitModel, error) {
	if strings.TrimSpace(actor.Name) == "" {
		return nil, fmt.Errorf("%w: actor identity required", ErrUnauthorized)
	}
	return e.store.Get(id)
}
