package commands

//go:generate mockgen -source=reconciliation.go -destination=../../../tests/mock/commands/reconciliation_mock.go -package=commandsmock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/pkg/obs"
	"parcel-booking/internal/pkg/ptr"
	"parcel-booking/internal/usecase/shared"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidPayload          = errs.New("invalid webhook payload")
	ErrInvalidReference        = errs.New("invalid merchant reference")
	ErrVerificationTimeout     = errs.New("payment verification timed out")
	ErrVerificationUnavailable = errs.New("payment verification unavailable")
	ErrStagedRecordNotFound    = errs.New("staged booking not found")
	ErrDuplicateResolution     = errs.New("staged booking already resolved")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrAmountMismatch          = errs.New("verified amount does not match fare")
	ErrInvalidTransition       = errs.New("invalid booking transition")
)

// ConfirmResult is returned by every confirmation path. BookingID is nil unless the verified status is SUCCESS.
type ConfirmResult struct {
	MerchantReference string
	BookingID         *string
	Status            payment.TxnStatus
}

type ReconciliationCommands interface {
	// HandleWebhook treats the event as a hint and acts on the gateway's verified status only.
	HandleWebhook(ctx context.Context, ev payment.WebhookEvent) (*ConfirmResult, error)
	// ConfirmRedirect serves the user's return from the hosted page.
	ConfirmRedirect(ctx context.Context, merchantRef string) (*ConfirmResult, error)
	// Redrive re-runs reconciliation for a reference without waiting on a concurrent path.
	Redrive(ctx context.Context, merchantRef string) (*ConfirmResult, error)
}

type reconciliationUseCaseImpl struct {
	uow     shared.UnitOfWork
	gateway PaymentGateway
	purges  PurgeScheduler
	cfg     config.ReconcileConfig
	clock   clock.Clock
}

func NewReconciliationUseCase(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	purges PurgeScheduler,
	cfg config.ReconcileConfig,
	clk clock.Clock,
) ReconciliationCommands {
	return &reconciliationUseCaseImpl{
		uow:     uow,
		gateway: gateway,
		purges:  purges,
		cfg:     cfg,
		clock:   clk,
	}
}

func (uc *reconciliationUseCaseImpl) HandleWebhook(ctx context.Context, ev payment.WebhookEvent) (*ConfirmResult, error) {
	ref, err := booking.ParseReference(ev.MerchantReferenceID)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidPayload)
	}

	ctx, span := startSpan(ctx, "reconcile.webhook", ref)
	defer span.End()

	rec, err := uc.verify(ctx, ref)
	if err != nil {
		return nil, recordErr(span, err)
	}
	if ev.TxnStatus != rec.TxnStatus {
		slog.Info("webhook claim differs from verified status",
			"merchant_ref", ref.String(),
			"claimed", ev.TxnStatus.String(),
			"verified", rec.TxnStatus.String())
	}

	result, err := uc.apply(ctx, ref, rec, false)
	return result, recordErr(span, err)
}

func (uc *reconciliationUseCaseImpl) ConfirmRedirect(ctx context.Context, merchantRef string) (*ConfirmResult, error) {
	return uc.confirm(ctx, "reconcile.redirect", merchantRef, true)
}

func (uc *reconciliationUseCaseImpl) Redrive(ctx context.Context, merchantRef string) (*ConfirmResult, error) {
	return uc.confirm(ctx, "reconcile.redrive", merchantRef, false)
}

func (uc *reconciliationUseCaseImpl) confirm(ctx context.Context, spanName, merchantRef string, poll bool) (*ConfirmResult, error) {
	ref, err := booking.ParseReference(merchantRef)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidReference)
	}

	ctx, span := startSpan(ctx, spanName, ref)
	defer span.End()

	rec, err := uc.verify(ctx, ref)
	if err != nil {
		return nil, recordErr(span, err)
	}
	result, err := uc.apply(ctx, ref, rec, poll)
	return result, recordErr(span, err)
}

func (uc *reconciliationUseCaseImpl) verify(ctx context.Context, ref booking.Reference) (*payment.StatusRecord, error) {
	vctx, cancel := context.WithTimeout(ctx, uc.cfg.VerifyTimeout)
	defer cancel()

	rec, err := uc.gateway.CheckStatus(vctx, ref)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(vctx.Err(), context.DeadlineExceeded) {
			return nil, errs.Mark(errs.Wrap(err, "check payment status"), ErrVerificationTimeout)
		}
		return nil, errs.Mark(errs.Wrap(err, "check payment status"), ErrVerificationUnavailable)
	}
	return rec, nil
}

func (uc *reconciliationUseCaseImpl) apply(ctx context.Context, ref booking.Reference, rec *payment.StatusRecord, poll bool) (*ConfirmResult, error) {
	result := &ConfirmResult{MerchantReference: ref.String(), Status: rec.TxnStatus}

	switch rec.TxnStatus {
	case payment.TxnPending:
		return result, nil
	case payment.TxnFailed:
		if ref.IsStaged() {
			return result, uc.discardStaged(ctx, ref)
		}
		return result, uc.markFailed(ctx, ref.BookingID())
	case payment.TxnSuccess:
		var (
			id  string
			err error
		)
		if ref.IsStaged() {
			id, err = uc.confirmStaged(ctx, ref, rec.Amount, poll)
		} else {
			id = ref.BookingID()
			err = uc.markPaid(ctx, id, rec.Amount)
		}
		if err != nil {
			return nil, err
		}
		result.BookingID = ptr.Of(id)
		return result, nil
	default:
		return nil, errs.Mark(payment.ErrUnknownTxnStatus, ErrVerificationUnavailable)
	}
}

func (uc *reconciliationUseCaseImpl) confirmStaged(ctx context.Context, ref booking.Reference, amount booking.Money, poll bool) (string, error) {
	if poll {
		id, ok, err := uc.awaitResolution(ctx, ref)
		if err != nil {
			return "", err
		}
		if ok {
			return id, uc.markPaid(ctx, id, amount)
		}
	}

	id, err := uc.resolveStaged(ctx, ref, amount)
	if err != nil {
		return "", err
	}
	// Materialization and the paid transition are separate commits; a crash in between leaves a
	// PendingPayment booking that the next confirmation finds and completes.
	return id, uc.markPaid(ctx, id, amount)
}

// awaitResolution gives a concurrent webhook a short window to finish before this path creates anything.
func (uc *reconciliationUseCaseImpl) awaitResolution(ctx context.Context, ref booking.Reference) (string, bool, error) {
	reads := uc.uow.CommandReads()
	for attempt := 0; attempt < uc.cfg.PollAttempts; attempt++ {
		staged, err := reads.StagedByReference(ctx, ref)
		switch {
		case infra.IsKind(err, infra.KindNotFound):
			return "", false, nil
		case err != nil:
			return "", false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		case staged.IsResolved():
			return *staged.ResolvedBookingID(), true, nil
		}

		if attempt == uc.cfg.PollAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(uc.cfg.PollInterval):
		}
	}
	return "", false, nil
}

// resolveStaged produces the single booking for a staged reference. The staged row is locked for the
// whole transaction and resolution is a compare-and-set on resolved_booking_id.
func (uc *reconciliationUseCaseImpl) resolveStaged(ctx context.Context, ref booking.Reference, amount booking.Money) (string, error) {
	var (
		bookingID  string
		purgeAfter *time.Time
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		bookingID, purgeAfter = "", nil
		now := uc.clock.Now()

		staged, err := tx.Staging().GetForUpdate(ctx, ref)
		if infra.IsKind(err, infra.KindNotFound) {
			// Purged after its grace window: the booking it produced is still findable by provenance.
			existing, ferr := tx.Bookings().FindByProvenanceForUpdate(ctx, shared.Provenance{
				Reference: ref.String(),
				Fare:      amount,
			})
			if infra.IsKind(ferr, infra.KindNotFound) {
				return ErrStagedRecordNotFound
			}
			if ferr != nil {
				return ferr
			}
			if !ref.IssuedTo(existing.UserID()) {
				return ErrStagedRecordNotFound
			}
			bookingID = existing.ID()
			return nil
		}
		if err != nil {
			return err
		}

		if !staged.Fare().Equal(amount) {
			slog.Warn("verified amount does not match staged fare",
				"merchant_ref", ref.String(),
				"fare", staged.Fare().String(),
				"verified", amount.String())
			return ErrAmountMismatch
		}
		if id := staged.ResolvedBookingID(); id != nil {
			bookingID = *id
			return nil
		}

		existing, err := tx.Bookings().FindByProvenanceForUpdate(ctx, shared.ProvenanceOf(staged))
		switch {
		case err == nil:
			slog.Warn("reusing booking with matching provenance",
				"merchant_ref", ref.String(),
				"booking_id", existing.ID())
			bookingID = existing.ID()
		case infra.IsKind(err, infra.KindNotFound):
			id, cerr := tx.Bookings().Create(ctx, staged.Materialize(now))
			if cerr != nil {
				return cerr
			}
			bookingID = id
		default:
			return err
		}

		at := now.Add(uc.cfg.EffectiveGraceWindow())
		if err := tx.Staging().Resolve(ctx, ref, bookingID, at); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return errs.Mark(err, ErrDuplicateResolution)
			}
			return err
		}
		purgeAfter = &at
		return nil
	})

	if errors.Is(err, ErrDuplicateResolution) {
		staged, rerr := uc.uow.CommandReads().StagedByReference(ctx, ref)
		if rerr == nil && staged.IsResolved() {
			slog.Info("staged booking resolved concurrently",
				"merchant_ref", ref.String(),
				"booking_id", *staged.ResolvedBookingID())
			return *staged.ResolvedBookingID(), nil
		}
		return "", err
	}
	if err != nil {
		return "", classifyTxErr(err)
	}

	if purgeAfter != nil {
		slog.Info("staged booking resolved", "merchant_ref", ref.String(), "booking_id", bookingID)
		if serr := uc.purges.Schedule(ctx, ref.String(), *purgeAfter); serr != nil {
			slog.Warn("failed to schedule staged booking purge",
				"merchant_ref", ref.String(),
				"error", serr.Error())
		}
	}
	return bookingID, nil
}

// markPaid is idempotent: an already paid booking is left untouched and no notification is queued.
func (uc *reconciliationUseCaseImpl) markPaid(ctx context.Context, bookingID string, amount booking.Money) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.Fare().Equal(amount) {
			slog.Warn("verified amount does not match booking fare",
				"booking_id", bookingID,
				"fare", b.Fare().String(),
				"verified", amount.String())
			return ErrAmountMismatch
		}

		prev := shared.StateOf(b)
		changed, err := b.MarkPaidOnline(uc.clock.Now())
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if !changed {
			return nil
		}
		if err := tx.Bookings().UpdateState(ctx, b, prev); err != nil {
			return err
		}
		return enqueueBookingPaid(ctx, tx, b, uc.clock.Now())
	})
	if err != nil {
		return classifyTxErr(err)
	}
	return nil
}

// discardStaged drops an unresolved staged record after a verified failure. A resolved record means a
// booking already exists for a reference the gateway now reports failed; that is logged and left alone.
func (uc *reconciliationUseCaseImpl) discardStaged(ctx context.Context, ref booking.Reference) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		staged, err := tx.Staging().GetForUpdate(ctx, ref)
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if staged.IsResolved() {
			slog.Error("gateway reports failure for resolved staged booking",
				"merchant_ref", ref.String(),
				"booking_id", *staged.ResolvedBookingID())
			return nil
		}
		_, err = tx.Staging().DeleteUnresolved(ctx, ref)
		return err
	})
	if err != nil {
		return classifyTxErr(err)
	}
	return nil
}

func (uc *reconciliationUseCaseImpl) markFailed(ctx context.Context, bookingID string) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		prev := shared.StateOf(b)
		changed, err := b.MarkPaymentFailed(uc.clock.Now())
		if errors.Is(err, booking.ErrPaymentAlreadySettled) {
			slog.Error("gateway reports failure for settled booking",
				"booking_id", bookingID,
				"payment_status", b.PaymentStatus().String())
			return nil
		}
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if !changed {
			return nil
		}
		return tx.Bookings().UpdateState(ctx, b, prev)
	})
	if err != nil {
		return classifyTxErr(err)
	}
	return nil
}

func enqueueBookingPaid(ctx context.Context, tx shared.Tx, b *booking.Booking, now time.Time) error {
	payload, err := json.Marshal(shared.BookingPaidPayload{
		Type:      shared.JobKindBookingPaid,
		BookingID: b.ID(),
		UserID:    b.UserID(),
		Tracking:  b.TrackingNumber(),
		Fare:      b.Fare().String(),
	})
	if err != nil {
		return errs.Wrap(err, "marshal booking paid payload")
	}
	return tx.Notifications().CreateJob(ctx, shared.JobKindBookingPaid, shared.JobTopicBookingPaid, payload, now)
}

// classifyTxErr maps repository failures to use case errors; use case sentinels pass through.
func classifyTxErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, ErrBookingNotFound)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, ErrInvalidTransition)
	case infra.IsKind(err, infra.KindDBFailure),
		infra.IsKind(err, infra.KindDuplicateKey),
		infra.IsKind(err, infra.KindForeignKeyViolated):
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	default:
		return err
	}
}

func startSpan(ctx context.Context, name string, ref booking.Reference) (context.Context, trace.Span) {
	return obs.Tracer().Start(ctx, name, trace.WithAttributes(
		attribute.String("merchant_ref", ref.String()),
		attribute.Bool("staged", ref.IsStaged()),
	))
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
