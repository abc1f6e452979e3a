package ports

import (
	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

// InterfaceCallback receives interface-level events from the driver.
// Implementations must not block; the lifecycle marshals each call
// onto its mailbox.
type InterfaceCallback interface {
	OnDestroyed(iface string)
	OnUp(iface string)
	OnDown(iface string)
}

// SoftApEventListener receives AP-level events for one soft AP
// session: start failures, per-instance radio info and station
// association changes.
type SoftApEventListener interface {
	OnFailure()
	OnInfoChanged(info domain.RadioInstanceInfo)
	OnConnectedClientsChanged(client domain.Client, connected bool)
}

// NativeDriver is the HAL boundary. SetupInterface returns the AP
// interface name, or "" when no interface is available. The boolean
// results report driver acceptance; a false return from StartSoftAp
// means the AP never came up.
type NativeDriver interface {
	SetupInterface(cb InterfaceCallback, requestor string, band domain.Band, bridged bool) string
	StartSoftAp(iface string, cfg *domain.ApConfiguration, tethered bool, listener SoftApEventListener) bool
	TeardownInterface(iface string)
	IsInterfaceUp(iface string) bool
	ForceClientDisconnect(iface string, mac string, reason domain.DisconnectReason) bool
	ResetFactoryMac(iface string) bool
	SetMac(iface string, mac string) bool
	IsSetMacSupported(iface string) bool
	SetCountryCode(iface string, countryCode string) bool
	RemoveInstanceFromBridge(iface string, instance string)
}
