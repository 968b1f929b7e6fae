package secure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// OwnershipPredicate decides whether a session may touch one concrete
// resource row. Predicates fetch the minimal ownership fields for the row
// and compare them against the session; a missing row denies without
// error.
type OwnershipPredicate func(ctx context.Context, sess *VerifiedSession, resourceID uuid.UUID) (bool, error)

// Evaluator answers permission and resource-access questions for verified
// sessions. Resource kinds dispatch through a predicate registry, so
// supporting a new kind means registering a predicate rather than growing
// a conditional.
type Evaluator struct {
	audit     AuditSink
	logger    *slog.Logger
	ownership map[Kind]OwnershipPredicate
}

// NewEvaluator constructs an Evaluator with the default ownership
// predicates for appointments, salons, billing records and staff.
func NewEvaluator(src OwnershipSource, audit AuditSink, logger *slog.Logger) *Evaluator {
	e := &Evaluator{
		audit:     audit,
		logger:    logger,
		ownership: make(map[Kind]OwnershipPredicate),
	}
	if src != nil {
		e.RegisterOwnership(KindAppointment, appointmentOwnership(src))
		e.RegisterOwnership(KindSalon, salonOwnership(src))
		e.RegisterOwnership(KindBilling, billingOwnership(src))
		e.RegisterOwnership(KindStaff, staffOwnership(src))
	}
	return e
}

// RegisterOwnership installs or replaces the predicate for a kind.
func (e *Evaluator) RegisterOwnership(kind Kind, pred OwnershipPredicate) {
	e.ownership[kind] = pred
}

// CheckPermission evaluates the session against the resource context.
// Order: universal sentinel, explicit grant, ownership rule, tenant rule.
// Ownership alone grants only read and update; a matching salon grants any
// action to staff-like and owner sessions. Denials are recorded on the
// audit trail before returning.
func (e *Evaluator) CheckPermission(ctx context.Context, sess *VerifiedSession, rc ResourceContext) bool {
	if sess == nil {
		return false
	}
	if sess.Permissions.Universal() {
		return true
	}
	if sess.Permissions.Has(rc.Kind, rc.Action) {
		return true
	}
	if rc.OwnerID.Valid && rc.OwnerID.UUID == sess.IdentityID {
		if rc.Action == ActionRead || rc.Action == ActionUpdate {
			return true
		}
	}
	if rc.SalonID.Valid && sess.SalonID.Valid && rc.SalonID.UUID == sess.SalonID.UUID {
		if sess.IsStaff || sess.IsSalonOwner {
			return true
		}
	}

	key := Permission{Kind: rc.Kind, Action: rc.Action}.Key()
	entry := AuditEntry{
		IdentityID:   sess.IdentityID.String(),
		Action:       AuditPermissionDenied,
		Resource:     string(rc.Kind),
		ErrorMessage: "permission denied: " + key,
	}
	if rc.ResourceID.Valid {
		entry.ResourceID = rc.ResourceID.UUID.String()
	}
	e.audit.Log(ctx, entry)
	return false
}

// VerifyResourceAccess checks whether the session owns or belongs to the
// given resource row. Universal sessions short-circuit to true; kinds with
// no registered predicate always deny.
func (e *Evaluator) VerifyResourceAccess(ctx context.Context, sess *VerifiedSession, kind Kind, resourceID uuid.UUID) (bool, error) {
	if sess == nil {
		return false, nil
	}
	if sess.Permissions.Universal() {
		return true, nil
	}
	pred, ok := e.ownership[kind]
	if !ok {
		if e.logger != nil {
			e.logger.Debug("no ownership predicate registered", slog.String("kind", string(kind)))
		}
		return false, nil
	}
	return pred(ctx, sess, resourceID)
}

func appointmentOwnership(src OwnershipSource) OwnershipPredicate {
	return func(ctx context.Context, sess *VerifiedSession, resourceID uuid.UUID) (bool, error) {
		row, err := src.AppointmentOwnership(ctx, resourceID)
		if err != nil {
			return false, err
		}
		if row == nil {
			return false, nil
		}
		if row.CustomerID == sess.IdentityID {
			return true, nil
		}
		if row.StaffID.Valid && row.StaffID.UUID == sess.IdentityID {
			return true, nil
		}
		return sess.SalonID.Valid && row.SalonID == sess.SalonID.UUID, nil
	}
}

func salonOwnership(src OwnershipSource) OwnershipPredicate {
	return func(ctx context.Context, sess *VerifiedSession, resourceID uuid.UUID) (bool, error) {
		row, err := src.SalonOwnership(ctx, resourceID)
		if err != nil {
			return false, err
		}
		if row == nil {
			return false, nil
		}
		if row.OwnerID == sess.IdentityID {
			return true, nil
		}
		if sess.SalonID.Valid && row.ID == sess.SalonID.UUID {
			return true, nil
		}
		return sess.IsAdmin, nil
	}
}

func billingOwnership(src OwnershipSource) OwnershipPredicate {
	return func(ctx context.Context, sess *VerifiedSession, resourceID uuid.UUID) (bool, error) {
		row, err := src.BillingOwnership(ctx, resourceID)
		if err != nil {
			return false, err
		}
		if row == nil {
			return false, nil
		}
		if row.CustomerID == sess.IdentityID {
			return true, nil
		}
		return sess.SalonID.Valid && row.SalonID == sess.SalonID.UUID, nil
	}
}

func staffOwnership(src OwnershipSource) OwnershipPredicate {
	return func(ctx context.Context, sess *VerifiedSession, resourceID uuid.UUID) (bool, error) {
		row, err := src.StaffOwnership(ctx, resourceID)
		if err != nil {
			return false, err
		}
		if row == nil {
			return false, nil
		}
		if row.IdentityID == sess.IdentityID {
			return true, nil
		}
		return sess.SalonID.Valid && row.SalonID == sess.SalonID.UUID, nil
	}
}
