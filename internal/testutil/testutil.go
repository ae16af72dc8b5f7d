// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"

	"github.com/fleetpush/fleetpush/pkg/inventory"
)

// Devices returns n inventory records of the given device type, with
// hostnames sw-01..sw-n and addresses in 10.1.1.0/24.
func Devices(n int, deviceType string) []*inventory.Device {
	devices := make([]*inventory.Device, n)
	for i := range devices {
		devices[i] = &inventory.Device{
			Hostname:   fmt.Sprintf("sw-%02d", i+1),
			Host:       fmt.Sprintf("10.1.1.%d", i+1),
			DeviceType: deviceType,
			Port:       22,
		}
	}
	return devices
}

// Template is a minimal valid configuration template.
const Template = `!
! baseline
hostname {{name}}
ntp server 10.0.0.1
!
`
