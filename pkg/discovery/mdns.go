package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser publishes OSCQuery services over mDNS.
type Advertiser interface {
	Advertise(ctx context.Context, info Info) error
	StopAll()
}

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu sync.Mutex

	queryServer *zeroconf.Server
	oscServer   *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	return &MDNSAdvertiser{config: config}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise registers the _oscjson._tcp service and, when an OSC port
// is set, the matching _osc._udp service. An existing advertisement is
// replaced.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	if info.HTTPPort == 0 {
		return fmt.Errorf("advertise requires an HTTP port")
	}

	instanceName := InstanceName(info.Name)
	txt := []string{TXTKeyTxtVers + "=" + TXTVersion}
	ifaces := a.getInterfaces()

	server, err := zeroconf.Register(
		instanceName,
		ServiceTypeOSCQuery,
		Domain,
		info.HTTPPort,
		txt,
		ifaces,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", ServiceTypeOSCQuery, err)
	}
	a.queryServer = server

	if info.OSCPort != 0 {
		server, err := zeroconf.Register(
			instanceName,
			ServiceTypeOSC,
			Domain,
			info.OSCPort,
			txt,
			ifaces,
		)
		if err != nil {
			a.stopLocked()
			return fmt.Errorf("failed to register %s: %w", ServiceTypeOSC, err)
		}
		a.oscServer = server
	}

	return nil
}

// StopAll withdraws all advertisements.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *MDNSAdvertiser) stopLocked() {
	if a.queryServer != nil {
		a.queryServer.Shutdown()
		a.queryServer = nil
	}
	if a.oscServer != nil {
		a.oscServer.Shutdown()
		a.oscServer = nil
	}
}

// InstanceName truncates a server name to the DNS label limit.
func InstanceName(name string) string {
	if len(name) > MaxInstanceNameLen {
		return name[:MaxInstanceNameLen]
	}
	return name
}

// Ensure MDNSAdvertiser implements Advertiser interface.
var _ Advertiser = (*MDNSAdvertiser)(nil)
