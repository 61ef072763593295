// Package wizard implements the three-stage hackathon registration flow.
// Each stage validates its form and writes a durable slot; the last stage
// submits the complete record and clears both slots.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

var (
	// ErrPersonalMissing means stage 2 ran without a stage 1 record and
	// stage 1 must be redone.
	ErrPersonalMissing  = errors.New("personal details missing; restart registration")
	ErrNotReady         = errors.New("registration not ready for submission")
	ErrUnknownHackathon = errors.New("unknown hackathon")
)

// DefaultHackathonID is used when stage 1 is opened without a hackathon.
const DefaultHackathonID = "1"

type Config struct {
	StageDelay  time.Duration
	SubmitDelay time.Duration
}

type Catalog interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Wizard struct {
	bucket    *slots.Bucket
	catalog   Catalog
	submitter Submitter
	cfg       Config
	logger    *slog.Logger
}

func New(bucket *slots.Bucket, catalog Catalog, submitter Submitter, cfg Config, logger *slog.Logger) *Wizard {
	return &Wizard{
		bucket:    bucket,
		catalog:   catalog,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
	}
}

// PersonalDefaults pre-fills stage 1 from the signed-in identity and the
// profile draft collected at sign-up.
func PersonalDefaults(snap session.Snapshot) studio.PersonalDetails {
	var d studio.PersonalDetails
	if snap.User != nil {
		d.FullName = snap.User.DisplayName
		d.Email = snap.User.Email
	}
	if d.FullName == "" {
		d.FullName = snap.ProfileDraft.FullName
	}
	if d.Email == "" {
		d.Email = snap.ProfileDraft.Email
	}
	d.Phone = snap.ProfileDraft.MobileNumber
	return d
}

// Personal returns the stage 1 record, if one was written.
func (w *Wizard) Personal(ctx context.Context) (studio.PersonalRecord, bool, error) {
	var rec studio.PersonalRecord
	err := w.bucket.GetJSON(ctx, slots.KeyRegistrationPersonal, &rec)
	if errors.Is(err, slots.ErrNotFound) {
		return studio.PersonalRecord{}, false, nil
	}
	if err != nil {
		return studio.PersonalRecord{}, false, err
	}
	return rec, true, nil
}

// SubmitPersonal validates stage 1 and overwrites the personal slot.
func (w *Wizard) SubmitPersonal(ctx context.Context, hackathonID string, details studio.PersonalDetails) (studio.PersonalRecord, error) {
	if err := forms.Validate(details); err != nil {
		return studio.PersonalRecord{}, err
	}
	if hackathonID == "" {
		hackathonID = DefaultHackathonID
	}
	ok, err := w.catalog.Exists(ctx, hackathonID)
	if err != nil {
		return studio.PersonalRecord{}, err
	}
	if !ok {
		return studio.PersonalRecord{}, ErrUnknownHackathon
	}

	rec := studio.PersonalRecord{PersonalDetails: details, HackathonID: hackathonID}
	if err := w.bucket.PutJSON(ctx, slots.KeyRegistrationPersonal, rec); err != nil {
		return studio.PersonalRecord{}, fmt.Errorf("saving personal details: %w", err)
	}
	if err := sleep(ctx, w.cfg.StageDelay); err != nil {
		return studio.PersonalRecord{}, err
	}
	return rec, nil
}

// SubmitEducation validates stage 2, merges it with the stage 1 record
// and overwrites the complete slot.
func (w *Wizard) SubmitEducation(ctx context.Context, edu studio.Education) (studio.Registration, error) {
	if err := forms.Validate(edu); err != nil {
		return studio.Registration{}, err
	}

	rec, ok, err := w.Personal(ctx)
	if err != nil {
		return studio.Registration{}, err
	}
	if !ok {
		return studio.Registration{}, ErrPersonalMissing
	}

	reg := studio.Registration{PersonalRecord: rec, Education: edu}
	if err := w.bucket.PutJSON(ctx, slots.KeyRegistrationComplete, reg); err != nil {
		return studio.Registration{}, fmt.Errorf("saving registration: %w", err)
	}
	if err := sleep(ctx, w.cfg.StageDelay); err != nil {
		return studio.Registration{}, err
	}
	return reg, nil
}

// Preview returns the complete record. ok is false while it has not been
// written yet; callers show a loading state.
func (w *Wizard) Preview(ctx context.Context) (reg studio.Registration, ok bool, err error) {
	err = w.bucket.GetJSON(ctx, slots.KeyRegistrationComplete, &reg)
	if errors.Is(err, slots.ErrNotFound) {
		return studio.Registration{}, false, nil
	}
	if err != nil {
		return studio.Registration{}, false, err
	}
	return reg, true, nil
}

// Submit sends the complete record and then deletes both slots, whether
// or not the submission succeeded.
func (w *Wizard) Submit(ctx context.Context) (Receipt, error) {
	reg, ok, err := w.Preview(ctx)
	if err != nil {
		return Receipt{}, err
	}
	if !ok {
		return Receipt{}, ErrNotReady
	}

	receipt, subErr := w.submit(ctx, reg)

	// Cleanup must run even if ctx was cancelled during submission.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	delErr := w.bucket.Delete(cctx, slots.KeyRegistrationPersonal, slots.KeyRegistrationComplete)
	if delErr != nil {
		w.logger.Error("clearing registration slots", "client", w.bucket.Client(), "error", delErr)
	}

	if subErr != nil {
		return Receipt{}, subErr
	}
	if delErr != nil {
		return Receipt{}, fmt.Errorf("clearing registration: %w", delErr)
	}
	return receipt, nil
}

func (w *Wizard) submit(ctx context.Context, reg studio.Registration) (Receipt, error) {
	if err := sleep(ctx, w.cfg.SubmitDelay); err != nil {
		return Receipt{}, err
	}
	receipt, err := w.submitter.Submit(ctx, w.bucket.Client(), reg)
	if err != nil {
		return Receipt{}, fmt.Errorf("submitting registration: %w", err)
	}
	return receipt, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
