package dab

import "fmt"

// IPDTComponentType is the data service component type (DSCTy) signalling
// embedded IP packets.
const IPDTComponentType uint8 = 59

// ServiceID identifies a service within an ensemble. Programme services use
// 16-bit identifiers, data services 32-bit ones.
type ServiceID uint32

func (id ServiceID) String() string {
	if id <= 0xFFFF {
		return fmt.Sprintf("0x%04X", uint32(id))
	}
	return fmt.Sprintf("0x%08X", uint32(id))
}

// ServiceType distinguishes programme (audio) services from data services.
type ServiceType uint8

const (
	ServiceTypeAudio ServiceType = iota
	ServiceTypeData
)

func (t ServiceType) String() string {
	if t == ServiceTypeData {
		return "data"
	}
	return "audio"
}

// TransportMechanism is the TMId of a service component.
type TransportMechanism uint8

const (
	TransportStreamAudio TransportMechanism = 0
	TransportStreamData  TransportMechanism = 1
	TransportPacketData  TransportMechanism = 3
)

// Component describes how one part of a service is carried.
type Component struct {
	Transport TransportMechanism
	// TypeCode is the ASCTy for audio stream components and the DSCTy
	// for data components.
	TypeCode   uint8
	SubChannel uint8
	// ServiceComponentID is only meaningful for packet-mode components.
	ServiceComponentID uint16
	PacketAddress      uint16
	Primary            bool
}

// Service is one offering in the ensemble.
type Service struct {
	ID         ServiceID
	Label      string
	Type       ServiceType
	Components []*Component
}

// Primary returns the primary component, or nil when none is flagged.
func (s *Service) Primary() *Component {
	if s == nil {
		return nil
	}
	for _, c := range s.Components {
		if c != nil && c.Primary {
			return c
		}
	}
	return nil
}

// CarriesIPDT reports whether the service is a data service whose primary
// component announces IPDT carriage.
func (s *Service) CarriesIPDT() bool {
	if s == nil || s.Type != ServiceTypeData {
		return false
	}
	primary := s.Primary()
	return primary != nil && primary.TypeCode == IPDTComponentType
}

// PacketComponent returns the component carried in packet mode, preferring
// the primary one, or nil when the service has none.
func (s *Service) PacketComponent() *Component {
	if s == nil {
		return nil
	}
	if primary := s.Primary(); primary != nil && primary.Transport == TransportPacketData {
		return primary
	}
	for _, c := range s.Components {
		if c != nil && c.Transport == TransportPacketData {
			return c
		}
	}
	return nil
}
