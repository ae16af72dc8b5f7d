// Package profile maps device-type keys to the session-control commands
// and connection parameters each command-syntax family needs.
package profile

import (
	"fmt"
	"sort"

	"github.com/fleetpush/fleetpush/pkg/util"
)

// VendorProfile describes how to drive one command-syntax family over a
// remote session: how to enter privileged mode, how to persist the
// running configuration, and what the ready prompt looks like.
type VendorProfile struct {
	// DeviceType is the canonical key for this family (e.g. "cisco_ios").
	DeviceType string

	// EnableCommand enters privileged mode. Empty when the family has no
	// separate privilege level.
	EnableCommand string

	// SaveCommand persists the running configuration. Empty when the
	// family persists per-line. May span multiple lines (Fortinet).
	SaveCommand string

	// PromptSuffix is the trailing character of the privileged prompt.
	PromptSuffix string

	// DefaultPort is the SSH port used when the device record has none.
	DefaultPort int
}

// UnknownDeviceTypeError is returned when a device record references a
// device-type key absent from the registry.
type UnknownDeviceTypeError struct {
	DeviceType string
}

func (e *UnknownDeviceTypeError) Error() string {
	return fmt.Sprintf("unknown device type %q", e.DeviceType)
}

func (e *UnknownDeviceTypeError) Unwrap() error {
	return util.ErrNotFound
}

// Registry is a read-only device-type → VendorProfile table, populated
// once at startup and never mutated during a run.
type Registry struct {
	profiles map[string]*VendorProfile
}

// NewRegistry builds a registry from the given profiles. Later entries
// with the same device type override earlier ones.
func NewRegistry(profiles []*VendorProfile) *Registry {
	m := make(map[string]*VendorProfile, len(profiles))
	for _, p := range profiles {
		m[p.DeviceType] = p
	}
	return &Registry{profiles: m}
}

// DefaultRegistry returns a registry covering every family in the
// builtin device model catalog.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinProfiles)
}

// Lookup resolves a device-type key. An unknown key returns
// *UnknownDeviceTypeError; callers surface it as a per-device failure,
// never as a run-level abort.
func (r *Registry) Lookup(deviceType string) (*VendorProfile, error) {
	p, ok := r.profiles[deviceType]
	if !ok {
		return nil, &UnknownDeviceTypeError{DeviceType: deviceType}
	}
	return p, nil
}

// DeviceTypes returns all registered keys, sorted.
func (r *Registry) DeviceTypes() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// builtinProfiles covers the command-syntax families of the supported
// device models. Several models share a family (e.g. all IOS switches).
var builtinProfiles = []*VendorProfile{
	{
		DeviceType:    "cisco_ios",
		EnableCommand: "enable",
		SaveCommand:   "write memory",
		PromptSuffix:  "#",
		DefaultPort:   22,
	},
	{
		DeviceType:    "cisco_xe",
		EnableCommand: "enable",
		SaveCommand:   "write memory",
		PromptSuffix:  "#",
		DefaultPort:   22,
	},
	{
		DeviceType:    "cisco_xr",
		EnableCommand: "enable",
		SaveCommand:   "commit",
		PromptSuffix:  "#",
		DefaultPort:   22,
	},
	{
		DeviceType:   "cisco_nxos",
		SaveCommand:  "copy running-config startup-config",
		PromptSuffix: "#",
		DefaultPort:  22,
	},
	{
		DeviceType:    "aruba_osswitch",
		EnableCommand: "enable",
		SaveCommand:   "write memory",
		PromptSuffix:  "#",
		DefaultPort:   22,
	},
	{
		// JunOS commits from configuration mode; no separate enable level.
		DeviceType:   "juniper_junos",
		SaveCommand:  "commit",
		PromptSuffix: ">",
		DefaultPort:  22,
	},
	{
		DeviceType:   "huawei",
		SaveCommand:  "save",
		PromptSuffix: ">",
		DefaultPort:  22,
	},
	{
		DeviceType:   "fortinet",
		SaveCommand:  "end\nconfig system global\nset cfg-save automatic\nend",
		PromptSuffix: "#",
		DefaultPort:  22,
	},
}
