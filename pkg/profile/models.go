package profile

import "sort"

// DeviceModel describes one supported hardware model: which
// command-syntax family it belongs to and factory-default credentials.
type DeviceModel struct {
	Vendor          string
	Model           string
	DeviceType      string
	DefaultUsername string
	DefaultPassword string
	DefaultEnable   string
	Port            int
	Capabilities    []string
}

// deviceModels is the builtin catalog, keyed by display name as it
// appears in inventory files.
var deviceModels = map[string]*DeviceModel{
	"Aruba CX 6300F": {
		Vendor:          "HPE Aruba",
		Model:           "CX 6300F",
		DeviceType:      "aruba_osswitch",
		DefaultUsername: "admin",
		Port:            22,
		Capabilities:    []string{"PoE+", "Stacking", "10G Uplink", "Layer 3"},
	},
	"Aruba CX 6200F": {
		Vendor:          "HPE Aruba",
		Model:           "CX 6200F",
		DeviceType:      "aruba_osswitch",
		DefaultUsername: "admin",
		Port:            22,
		Capabilities:    []string{"PoE+", "Layer 2", "1G Uplink"},
	},
	"Cisco Catalyst 9300": {
		Vendor:          "Cisco",
		Model:           "Catalyst 9300",
		DeviceType:      "cisco_ios",
		DefaultUsername: "admin",
		DefaultPassword: "admin",
		DefaultEnable:   "cisco",
		Port:            22,
		Capabilities:    []string{"PoE++", "StackWise", "UADP 3.0", "Layer 3"},
	},
	"Cisco Catalyst 9200": {
		Vendor:          "Cisco",
		Model:           "Catalyst 9200",
		DeviceType:      "cisco_ios",
		DefaultUsername: "admin",
		DefaultPassword: "admin",
		Port:            22,
		Capabilities:    []string{"PoE+", "StackWise", "Layer 2"},
	},
	"Cisco ISR 4451": {
		Vendor:          "Cisco",
		Model:           "ISR 4451",
		DeviceType:      "cisco_ios",
		DefaultUsername: "admin",
		DefaultPassword: "admin",
		DefaultEnable:   "cisco",
		Port:            22,
		Capabilities:    []string{"Router", "4 Gbps", "SD-WAN"},
	},
	"Juniper EX4300": {
		Vendor:          "Juniper",
		Model:           "EX4300",
		DeviceType:      "juniper_junos",
		DefaultUsername: "root",
		Port:            22,
		Capabilities:    []string{"Virtual Chassis", "PoE+", "Layer 3"},
	},
	"Fortinet FortiSwitch 448E": {
		Vendor:          "Fortinet",
		Model:           "FortiSwitch 448E",
		DeviceType:      "fortinet",
		DefaultUsername: "admin",
		Port:            22,
		Capabilities:    []string{"FortiLink", "PoE+", "Layer 2"},
	},
	"Huawei S5720": {
		Vendor:          "Huawei",
		Model:           "S5720",
		DeviceType:      "huawei",
		DefaultUsername: "admin",
		DefaultPassword: "admin@123",
		Port:            22,
		Capabilities:    []string{"iStack", "PoE+", "Layer 3"},
	},
}

// LookupModel resolves a catalog entry by display name.
func LookupModel(name string) (*DeviceModel, bool) {
	m, ok := deviceModels[name]
	return m, ok
}

// ModelNames returns all catalog display names, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(deviceModels))
	for name := range deviceModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
