// ABOUTME: Version and product identification
// ABOUTME: Reported in hello messages, mDNS TXT records and the CLI
package version

const (
	// Version is the release of the server and CLI
	Version = "0.3.0"

	// Product is the name shown to users
	Product = "STEK Meeting Minutes"

	// Manufacturer owns the product
	Manufacturer = "STEK"

	// ProtocolVersion is the analyze websocket protocol revision
	ProtocolVersion = 1
)
