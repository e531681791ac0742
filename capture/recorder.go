package capture

import (
	"context"

	"eisview/models"
)

// Recorder appends every sample a live session accepts to one capture session.
type Recorder struct {
	ctx       context.Context
	store     *SqliteStore
	sessionID string
}

func NewRecorder(ctx context.Context, store *SqliteStore, device string) (*Recorder, error) {
	sessionID, err := store.CreateSession(ctx, device)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		ctx:       ctx,
		store:     store,
		sessionID: sessionID,
	}, nil
}

func (r *Recorder) SessionID() string {
	return r.sessionID
}

func (r *Recorder) Record(sample models.RawSample) error {
	return r.store.Append(r.ctx, r.sessionID, sample)
}
