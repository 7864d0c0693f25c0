package models

// Note operations reported in NoteEvent.Operation.
const (
	NoteCreated = "created"
	NoteUpdated = "updated"
	NoteDeleted = "deleted"
)

// NoteEvent describes a change to a note, published after the change is made.
type NoteEvent struct {
	EventID   string `json:"event_id"`  // EventID is a unique identifier for the event.
	Timestamp int64  `json:"timestamp"` // Timestamp is the Unix timestamp (in seconds) of the change.
	UserID    int64  `json:"user_id"`   // UserID is the owner of the note.
	NoteID    int64  `json:"note_id"`   // NoteID is the affected note.
	Operation string `json:"operation"` // Operation is one of "created", "updated" or "deleted".
}
