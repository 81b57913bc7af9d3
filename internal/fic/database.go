package fic

import (
	"encoding/binary"
	"errors"
	"sort"
	"sync"

	"datarecv/internal/dab"
)

// FIBLength is the size of one Fast Information Block including its CRC.
const FIBLength = 32

// ErrFIBCRC is returned for blocks whose CRC does not match.
var ErrFIBCRC = errors.New("fib crc mismatch")

type packetInfo struct {
	dscty      uint8
	subChannel uint8
	address    uint16
}

// Database accumulates ensemble and service information across FIBs. It is
// safe for concurrent use.
type Database struct {
	mu sync.RWMutex

	ensembleID    uint16
	hasEnsembleID bool
	label         string
	hasLabel      bool

	services map[dab.ServiceID]*dab.Service
	labels   map[dab.ServiceID]string
	packets  map[uint16]packetInfo

	version uint64
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{
		services: make(map[dab.ServiceID]*dab.Service),
		labels:   make(map[dab.ServiceID]string),
		packets:  make(map[uint16]packetInfo),
	}
}

// ParseFIC splits a FIC payload into FIBs and parses each. It returns the
// number of blocks rejected for a bad CRC.
func (d *Database) ParseFIC(fic []byte) int {
	bad := 0
	for off := 0; off+FIBLength <= len(fic); off += FIBLength {
		if err := d.ParseFIB(fic[off : off+FIBLength]); err != nil {
			bad++
		}
	}
	return bad
}

// ParseFIB parses one 32-byte block.
func (d *Database) ParseFIB(fib []byte) error {
	if len(fib) != FIBLength {
		return errors.New("fib must be 32 bytes")
	}
	if !dab.CheckCRC(fib) {
		return ErrFIBCRC
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data := fib[:FIBLength-2]
	for pos := 0; pos < len(data); {
		header := data[pos]
		if header == 0xFF {
			break
		}
		figType := header >> 5
		length := int(header & 0x1F)
		pos++
		if pos+length > len(data) {
			break
		}
		body := data[pos : pos+length]
		pos += length
		if length == 0 {
			continue
		}
		switch figType {
		case 0:
			d.parseFIG0(body)
		case 1:
			d.parseFIG1(body)
		}
	}
	return nil
}

// Version increases every time the database learns something new. A
// stable version across many blocks means the service table has settled.
func (d *Database) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// EnsembleID returns the ensemble identifier, if received.
func (d *Database) EnsembleID() (uint16, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ensembleID, d.hasEnsembleID
}

// Label returns the ensemble label, if received.
func (d *Database) Label() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.label, d.hasLabel
}

// Services returns a deep copy of the current service table with labels
// and packet-mode addressing resolved.
func (d *Database) Services() map[dab.ServiceID]*dab.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[dab.ServiceID]*dab.Service, len(d.services))
	for id, svc := range d.services {
		cp := &dab.Service{ID: svc.ID, Label: d.labels[id], Type: svc.Type}
		for _, c := range svc.Components {
			comp := *c
			if comp.Transport == dab.TransportPacketData {
				if info, ok := d.packets[comp.ServiceComponentID]; ok {
					comp.TypeCode = info.dscty
					comp.SubChannel = info.subChannel
					comp.PacketAddress = info.address
				}
			}
			cp.Components = append(cp.Components, &comp)
		}
		out[id] = cp
	}
	return out
}

// ServiceIDs returns the known service identifiers in ascending order.
func (d *Database) ServiceIDs() []dab.ServiceID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]dab.ServiceID, 0, len(d.services))
	for id := range d.services {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (d *Database) parseFIG0(body []byte) {
	pd := body[0]&0x20 != 0
	ext := body[0] & 0x1F
	payload := body[1:]
	switch ext {
	case 0:
		if len(payload) >= 2 {
			id := binary.BigEndian.Uint16(payload)
			if !d.hasEnsembleID || d.ensembleID != id {
				d.ensembleID = id
				d.hasEnsembleID = true
				d.version++
			}
		}
	case 2:
		d.parseServiceOrganisation(payload, pd)
	case 3:
		d.parsePacketComponents(payload)
	}
}

// parseServiceOrganisation handles FIG 0/2.
func (d *Database) parseServiceOrganisation(payload []byte, pd bool) {
	idLen := 2
	if pd {
		idLen = 4
	}
	for pos := 0; pos+idLen+1 <= len(payload); {
		var id dab.ServiceID
		if pd {
			id = dab.ServiceID(binary.BigEndian.Uint32(payload[pos:]))
		} else {
			id = dab.ServiceID(binary.BigEndian.Uint16(payload[pos:]))
		}
		pos += idLen
		count := int(payload[pos] & 0x0F)
		pos++
		if pos+2*count > len(payload) {
			return
		}
		components := make([]*dab.Component, 0, count)
		for i := 0; i < count; i++ {
			a, b := payload[pos], payload[pos+1]
			pos += 2
			c := &dab.Component{
				Transport: dab.TransportMechanism(a >> 6),
				Primary:   b&0x02 != 0,
			}
			switch c.Transport {
			case dab.TransportStreamAudio, dab.TransportStreamData:
				c.TypeCode = a & 0x3F
				c.SubChannel = b >> 2
			case dab.TransportPacketData:
				c.ServiceComponentID = uint16(a&0x3F)<<6 | uint16(b>>2)
			default:
				continue
			}
			components = append(components, c)
		}
		d.mergeService(id, pd, components)
	}
}

func (d *Database) mergeService(id dab.ServiceID, pd bool, components []*dab.Component) {
	svc, ok := d.services[id]
	if !ok {
		svc = &dab.Service{ID: id}
		d.services[id] = svc
		d.version++
	}
	for _, c := range components {
		if !hasComponent(svc.Components, c) {
			svc.Components = append(svc.Components, c)
			d.version++
		}
	}
	svc.Type = dab.ServiceTypeAudio
	if pd {
		svc.Type = dab.ServiceTypeData
	} else if primary := svc.Primary(); primary != nil && primary.Transport != dab.TransportStreamAudio {
		svc.Type = dab.ServiceTypeData
	}
}

func hasComponent(existing []*dab.Component, c *dab.Component) bool {
	for _, e := range existing {
		if e.Transport != c.Transport {
			continue
		}
		if c.Transport == dab.TransportPacketData {
			if e.ServiceComponentID == c.ServiceComponentID {
				return true
			}
			continue
		}
		if e.SubChannel == c.SubChannel {
			return true
		}
	}
	return false
}

// parsePacketComponents handles FIG 0/3.
func (d *Database) parsePacketComponents(payload []byte) {
	for pos := 0; pos+5 <= len(payload); {
		scid := uint16(payload[pos])<<4 | uint16(payload[pos+1]>>4)
		scca := payload[pos+1]&0x01 != 0
		info := packetInfo{
			dscty:      payload[pos+2] & 0x3F,
			subChannel: payload[pos+3] >> 2,
			address:    uint16(payload[pos+3]&0x03)<<8 | uint16(payload[pos+4]),
		}
		pos += 5
		if scca {
			pos += 2
		}
		if prev, ok := d.packets[scid]; !ok || prev != info {
			d.packets[scid] = info
			d.version++
		}
	}
}

func (d *Database) parseFIG1(body []byte) {
	charset := body[0] >> 4
	ext := body[0] & 0x07
	payload := body[1:]
	switch ext {
	case 0:
		if len(payload) < 2+labelLength {
			return
		}
		label := decodeLabel(payload[2:2+labelLength], charset)
		if !d.hasLabel || d.label != label {
			d.label = label
			d.hasLabel = true
			d.version++
		}
	case 1:
		if len(payload) < 2+labelLength {
			return
		}
		d.setServiceLabel(dab.ServiceID(binary.BigEndian.Uint16(payload)), decodeLabel(payload[2:2+labelLength], charset))
	case 5:
		if len(payload) < 4+labelLength {
			return
		}
		d.setServiceLabel(dab.ServiceID(binary.BigEndian.Uint32(payload)), decodeLabel(payload[4:4+labelLength], charset))
	}
}

func (d *Database) setServiceLabel(id dab.ServiceID, label string) {
	if d.labels[id] == label {
		return
	}
	d.labels[id] = label
	d.version++
}
