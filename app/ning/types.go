package ning

import (
	"fmt"
	"time"
)

// Post is a BlogPost resource as accepted by the create endpoint.
type Post struct {
	Title       string
	Description string
	PublishTime time.Time
}

// Token is the per-owner OAuth token the post is published under.
type Token struct {
	Key    string
	Secret string
}

type response struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Reason  string `json:"reason"`
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Subcode int    `json:"subcode"`
}

// Error is a rejected API call. Status is the HTTP status when the body
// carried none.
type Error struct {
	Status  int
	Code    int
	Subcode int
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ning API error: status %d code %d subcode %d: %s", e.Status, e.Code, e.Subcode, e.Reason)
}
