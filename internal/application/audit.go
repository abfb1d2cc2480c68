package application

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
)

// Recorder writes audit_log rows. Failures are logged, never returned to the caller.
type Recorder struct {
	Repo  audit.Repository
	Clock Clock
	Log   *zap.Logger
}

// Event is one audited action.
type Event struct {
	OrganizationID string
	UserID         string
	Action         string
	ResourceType   string
	ResourceID     string
	Details        any
}

func (r Recorder) Record(ctx context.Context, ev Event) {
	if r.Repo == nil {
		return
	}
	clock := r.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	c := audit.ClientFrom(ctx)
	e := &audit.Entry{
		OrganizationID: ev.OrganizationID,
		UserID:         ev.UserID,
		Action:         ev.Action,
		ResourceType:   ev.ResourceType,
		ResourceID:     ev.ResourceID,
		IPAddress:      c.IP,
		UserAgent:      c.UserAgent,
		CreatedAt:      clock.Now().UTC(),
	}
	if ev.Details != nil {
		if b, err := json.Marshal(ev.Details); err == nil {
			e.DetailsJSON = string(b)
		}
	}
	if err := r.Repo.Save(ctx, e); err != nil && r.Log != nil {
		r.Log.Warn("audit write failed", zap.String("action", ev.Action), zap.Error(err))
	}
}
