package powerbi

import "fmt"

// RemoteError is a non-success HTTP status from the Power BI API, carrying
// the response body so the message can be surfaced to the caller.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("power bi api error: %d - %s", e.Status, e.Body)
}
