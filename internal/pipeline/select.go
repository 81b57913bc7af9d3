package pipeline

import (
	"sort"

	"datarecv/internal/dab"
)

// SelectServices returns the IDs of data services whose primary component
// carries IPDT, in ascending order and capped at limit when limit is
// positive. Services sharing a packet-mode sub-channel carry one packet
// stream, so only the lowest ID per sub-channel is kept.
func SelectServices(services map[dab.ServiceID]*dab.Service, limit int) []dab.ServiceID {
	ids := make([]dab.ServiceID, 0, len(services))
	for id, svc := range services {
		if svc.CarriesIPDT() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	seen := make(map[uint8]bool, len(ids))
	selected := ids[:0]
	for _, id := range ids {
		if comp := services[id].PacketComponent(); comp != nil {
			if seen[comp.SubChannel] {
				continue
			}
			seen[comp.SubChannel] = true
		}
		selected = append(selected, id)
	}
	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
