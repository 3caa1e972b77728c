package queue

// qerr is a lightweight comparable error type, so errors.Is works on the
// sentinel values below.
type qerr string

func (e qerr) Error() string { return string(e) }

var (
	// ErrServiceRequired means a join request carried no service name.
	ErrServiceRequired = qerr("service is required")
)
