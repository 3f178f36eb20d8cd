// Package queue defines message payloads exchanged over the message broker
// along with the publisher and the background consumer for them.
package queue

// MovieActivityEvent is published after a movie is created, updated or
// deleted. It carries enough information for downstream consumers to log or
// trigger analytics without querying the primary database.
type MovieActivityEvent struct {
	Action     string `json:"action"` // create | update | delete
	MovieID    uint64 `json:"movie_id"`
	UserID     uint64 `json:"user_id"`
	Title      string `json:"title"`
	OccurredAt string `json:"occurred_at"`
}
