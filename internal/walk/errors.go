package walk

import "fmt"

// UnknownTypeError reports a node whose discriminator has no registered
// handler. The walk has no default behavior; this always aborts.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no handler registered for node type %q", e.Type)
}
