package backend

// BackendCapability represents a capability that a backend can provide

import "slices"

type BackendCapability string

const (
	CapabilityListing     BackendCapability = "listing"
	CapabilityRangeRead   BackendCapability = "range_read"
	CapabilitySharedRead  BackendCapability = "shared_read"
	CapabilityPersistence BackendCapability = "persistence"
)

// BackendCapabilities describes what a backend supports
type BackendCapabilities struct {
	Capabilities  []BackendCapability `json:"capabilities"`
	MaxObjectSize int64               `json:"max_object_size"`
}

// Contains checks if a capability is supported
func (bc *BackendCapabilities) Contains(cap BackendCapability) bool {
	return slices.Contains(bc.Capabilities, cap)
}
