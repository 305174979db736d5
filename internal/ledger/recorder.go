package ledger

import "go.uber.org/zap"

// #region recorder

// Recorder adapts the store to the controller's fire-and-forget event
// surface. Write failures are logged and dropped; an audit hiccup must
// never fail a turn.
type Recorder struct {
	store *Store
	log   *zap.Logger
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store *Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log}
}

// Event writes one audit event row.
func (r *Recorder) Event(sessionID, kind, detail string) {
	if err := r.store.RecordEvent(sessionID, kind, detail); err != nil {
		r.log.Warn("record event failed",
			zap.String("session_id", sessionID),
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// #endregion recorder
