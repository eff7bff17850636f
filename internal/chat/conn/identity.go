package conn

import "net"

// identity - network identity of the peer, used in notices and logs.
func identity(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}
	return addr.String()
}
