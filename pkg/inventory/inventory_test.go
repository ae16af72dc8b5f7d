package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const csvInventory = `ip,hostname,model,username,password
10.1.1.1,sw-core-01,Cisco Catalyst 9300,admin,secret1
10.1.1.2,sw-edge-01,Aruba CX 6300F,,
10.1.1.3,,Cisco Catalyst 9300,admin,secret3
`

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "devices.csv", csvInventory)

	devices, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("len(devices) = %d, want 3", len(devices))
	}

	d := devices[0]
	if d.Host != "10.1.1.1" || d.Hostname != "sw-core-01" || d.Model != "Cisco Catalyst 9300" {
		t.Errorf("first record = %+v", d)
	}
	if d.Username != "admin" || d.Password != "secret1" {
		t.Errorf("credentials = %q/%q", d.Username, d.Password)
	}

	// A record without a hostname is identified by address.
	if id := devices[2].ID(); id != "10.1.1.3" {
		t.Errorf("ID() = %q, want host address", id)
	}
	if id := devices[0].ID(); id != "sw-core-01" {
		t.Errorf("ID() = %q, want hostname", id)
	}
}

const yamlInventory = `devices:
  - hostname: sw-core-01
    host: 10.1.1.1
    model: Juniper EX4300
    username: admin
    tags: [core, mgmt]
  - hostname: sw-edge-01
    host: 10.1.1.2
    device_type: cisco_ios
    port: 2222
`

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "devices.yaml", yamlInventory)

	devices, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if devices[0].Model != "Juniper EX4300" || len(devices[0].Tags) != 2 {
		t.Errorf("first record = %+v", devices[0])
	}
	if devices[1].DeviceType != "cisco_ios" || devices[1].Port != 2222 {
		t.Errorf("second record = %+v", devices[1])
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "devices.txt", "whatever")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestApplyModelDefaults(t *testing.T) {
	devices := []*Device{
		{Hostname: "sw-01", Host: "10.1.1.1", Model: "Cisco Catalyst 9300"},
		{Hostname: "sw-02", Host: "10.1.1.2", Model: "Cisco Catalyst 9300", Username: "ops", Port: 2222},
		{Hostname: "sw-03", Host: "10.1.1.3", Model: "No Such Model"},
		{Hostname: "sw-04", Host: "10.1.1.4"},
	}

	ApplyModelDefaults(devices, "Juniper EX4300")

	if devices[0].DeviceType != "cisco_ios" || devices[0].Port != 22 {
		t.Errorf("sw-01 = type %q port %d, want cisco_ios 22", devices[0].DeviceType, devices[0].Port)
	}
	if devices[0].Username == "" {
		t.Error("sw-01 username not filled from catalog")
	}

	// Explicit values win over catalog defaults.
	if devices[1].Username != "ops" || devices[1].Port != 2222 {
		t.Errorf("sw-02 = user %q port %d, want ops 2222", devices[1].Username, devices[1].Port)
	}

	// Unknown model: left alone, fails per-device at dispatch time.
	if devices[2].DeviceType != "" {
		t.Errorf("sw-03 device type = %q, want empty", devices[2].DeviceType)
	}

	// Missing model falls back to the run default.
	if devices[3].DeviceType != "juniper_junos" {
		t.Errorf("sw-04 device type = %q, want juniper_junos", devices[3].DeviceType)
	}
}
