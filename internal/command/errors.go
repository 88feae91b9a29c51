package command

import "fmt"

// GatewayError reports a failed call to the directory or messaging gateway.
type GatewayError struct {
	Op     string // "list_members", "open_conversation", "post_message"
	Target string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
