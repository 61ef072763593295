package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/events"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

type Receipt struct {
	RegistrationID string    `json:"registrationId"`
	HackathonID    string    `json:"hackathonId"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Submitter performs the terminal submission of a registration.
type Submitter interface {
	Submit(ctx context.Context, client string, reg studio.Registration) (Receipt, error)
}

// EventSubmitter hands registrations to downstream consumers as
// registration.submitted events. Nothing is stored here.
type EventSubmitter struct {
	pub events.Publisher
	now func() time.Time
}

func NewEventSubmitter(pub events.Publisher) *EventSubmitter {
	return &EventSubmitter{pub: pub, now: time.Now}
}

func (s *EventSubmitter) Submit(ctx context.Context, client string, reg studio.Registration) (Receipt, error) {
	r := Receipt{
		RegistrationID: uuid.NewString(),
		HackathonID:    reg.HackathonID,
		SubmittedAt:    s.now().UTC(),
	}
	err := s.pub.Publish(ctx, events.RegistrationSubmitted, events.RegistrationSubmittedEvent{
		RegistrationID: r.RegistrationID,
		ClientID:       client,
		HackathonID:    reg.HackathonID,
		Email:          reg.Email,
		FullName:       reg.FullName,
		SubmittedAt:    r.SubmittedAt,
	})
	if err != nil {
		return Receipt{}, err
	}
	return r, nil
}
