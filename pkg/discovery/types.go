package discovery

// Service type constants for mDNS.
const (
	// ServiceTypeOSCQuery is the service type for the HTTP query endpoint.
	ServiceTypeOSCQuery = "_oscjson._tcp"

	// ServiceTypeOSC is the service type for the raw OSC UDP socket.
	ServiceTypeOSC = "_osc._udp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record key constants.
const (
	TXTKeyTxtVers = "txtvers"

	// TXTVersion is the current TXT record schema version.
	TXTVersion = "1"
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Info describes the services a server wants to advertise.
type Info struct {
	// Name is the mDNS instance name, typically the server name.
	Name string

	// HTTPPort is the TCP port of the OSCQuery HTTP endpoint.
	HTTPPort int

	// OSCPort is the UDP port of the OSC socket. Zero disables the
	// _osc._udp advertisement.
	OSCPort int
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to a single named network
	// interface. Empty means all interfaces.
	Interface string
}
