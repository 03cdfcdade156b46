package domain

// Principal is the calling identity attached to a request. The record core
// only ever sees Subject, and only inside the minted audit event.
type Principal struct {
	Subject string
	Admin   bool
}
