// Package inventory loads device records from CSV or YAML files and
// resolves model defaults from the builtin catalog.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/fleetpush/fleetpush/pkg/profile"
)

// Device is one inventory record. Records are immutable once a
// deployment run starts; the engine holds read-only references.
type Device struct {
	Hostname     string   `csv:"hostname" yaml:"hostname"`
	Host         string   `csv:"ip" yaml:"host"`
	Model        string   `csv:"model" yaml:"model,omitempty"`
	DeviceType   string   `csv:"device_type" yaml:"device_type,omitempty"`
	Username     string   `csv:"username" yaml:"username,omitempty"`
	Password     string   `csv:"password" yaml:"password,omitempty"`
	EnableSecret string   `csv:"enable_secret" yaml:"enable_secret,omitempty"`
	Port         int      `csv:"port" yaml:"port,omitempty"`
	Tags         []string `csv:"-" yaml:"tags,omitempty"`
}

// ID returns the identifier used in outcomes and run state: the
// hostname when present, otherwise the host address.
func (d *Device) ID() string {
	if d.Hostname != "" {
		return d.Hostname
	}
	return d.Host
}

// yamlFile is the on-disk shape of a YAML inventory.
type yamlFile struct {
	Devices []*Device `yaml:"devices"`
}

// Load reads an inventory file, dispatching on extension
// (.csv, .yaml/.yml).
func Load(path string) ([]*Device, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("inventory: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV inventory with header columns matching the csv
// struct tags (ip, hostname, model, username, password, ...).
func LoadCSV(path string) ([]*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: read %s: %w", path, err)
	}
	var devices []*Device
	if err := gocsv.UnmarshalBytes(data, &devices); err != nil {
		return nil, fmt.Errorf("inventory: parse %s: %w", path, err)
	}
	return devices, nil
}

// LoadYAML reads a YAML inventory with a top-level "devices" list.
func LoadYAML(path string) ([]*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: read %s: %w", path, err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("inventory: parse %s: %w", path, err)
	}
	return f.Devices, nil
}

// ApplyModelDefaults fills each record's device type, port, and
// credentials from the model catalog. Records naming an unknown model
// keep an empty device type, which surfaces later as a per-device
// UnknownDeviceType failure rather than aborting the load.
func ApplyModelDefaults(devices []*Device, defaultModel string) {
	for _, d := range devices {
		model := d.Model
		if model == "" {
			model = defaultModel
		}
		m, ok := profile.LookupModel(model)
		if !ok {
			continue
		}
		if d.DeviceType == "" {
			d.DeviceType = m.DeviceType
		}
		if d.Port == 0 {
			d.Port = m.Port
		}
		if d.Username == "" {
			d.Username = m.DefaultUsername
		}
		if d.Password == "" {
			d.Password = m.DefaultPassword
		}
		if d.EnableSecret == "" {
			d.EnableSecret = m.DefaultEnable
		}
		if len(d.Tags) == 0 {
			d.Tags = append([]string(nil), m.Capabilities...)
		}
	}
}
