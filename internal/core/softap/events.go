package softap

import "github.com/lcalzada-xor/softapd/internal/core/domain"

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evFailure
	evIfaceStatusChanged
	evIfaceDestroyed
	evIfaceDown
	evClientAssocChanged
	evApInfoChanged
	evNoClientsTimeout
	evNoClientsTimeoutOneInstance
	evUpdateCapability
	evUpdateConfig
	evForceDisconnectPending
)

func (k eventKind) String() string {
	switch k {
	case evStart:
		return "start"
	case evStop:
		return "stop"
	case evFailure:
		return "failure"
	case evIfaceStatusChanged:
		return "iface_status_changed"
	case evIfaceDestroyed:
		return "iface_destroyed"
	case evIfaceDown:
		return "iface_down"
	case evClientAssocChanged:
		return "client_assoc_changed"
	case evApInfoChanged:
		return "ap_info_changed"
	case evNoClientsTimeout:
		return "no_clients_timeout"
	case evNoClientsTimeoutOneInstance:
		return "no_clients_timeout_one_instance"
	case evUpdateCapability:
		return "update_capability"
	case evUpdateConfig:
		return "update_config"
	case evForceDisconnectPending:
		return "force_disconnect_pending"
	}
	return "unknown"
}

// event is one mailbox entry. Only the fields relevant to the kind are
// populated.
type event struct {
	kind       eventKind
	requestor  string
	up         bool
	client     domain.Client
	connected  bool
	info       domain.RadioInstanceInfo
	capability *domain.Capability
	config     *domain.ApConfiguration
}
