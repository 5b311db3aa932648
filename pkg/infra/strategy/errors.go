package strategy

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousPlacement: a property needing one host maps to several host groups.
	ErrAmbiguousPlacement = errors.New("component is mapped to more than one host group")
	// ErrUnsatisfiablePlacement: a property needing one host maps to no host group
	// and the component's cardinality does not allow zero instances.
	ErrUnsatisfiablePlacement = errors.New("component is not mapped to any host group")
	ErrUnknownHostGroup       = errors.New("host group token does not match any host group")
	ErrInvalidHostCount       = errors.New("invalid number of hosts")
)

// PlacementError describes why a property could not be resolved against the topology.
type PlacementError struct {
	ConfigType string
	Property   string
	Component  string
	HostGroup  string
	// Count is the number of host groups (or hosts) that matched.
	Count int
	Err   error
}

func (e *PlacementError) Error() string {
	switch {
	case e.HostGroup != "":
		return fmt.Sprintf("unable to update configuration property '%s/%s': host group '%s': %v",
			e.ConfigType, e.Property, e.HostGroup, e.Err)
	case e.Component != "":
		return fmt.Sprintf("unable to update configuration property '%s/%s' with topology information: component '%s' is mapped to an invalid number of host groups '%d': %v",
			e.ConfigType, e.Property, e.Component, e.Count, e.Err)
	default:
		return fmt.Sprintf("unable to update configuration property '%s/%s': %v", e.ConfigType, e.Property, e.Err)
	}
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}
