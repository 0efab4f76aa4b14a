package heartbeat

// Transport identifies how a single heartbeat was sent.
type Transport int

const (
	// TransportBeacon is fire-and-forget background delivery.
	TransportBeacon Transport = iota
	// TransportRequest is a direct POST through the session.
	TransportRequest
)

func (t Transport) String() string {
	switch t {
	case TransportBeacon:
		return "beacon"
	case TransportRequest:
		return "request"
	default:
		return "unknown"
	}
}
