package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/fleetpush/fleetpush/pkg/inventory"
	"github.com/fleetpush/fleetpush/pkg/settings"
)

// loadInventory reads the inventory file (falling back to the settings
// default) and fills in model defaults from the catalog.
func loadInventory(path string, cfg *settings.Settings, model string) ([]*inventory.Device, error) {
	if path == "" {
		path = cfg.DefaultInventory
	}
	if path == "" {
		return nil, fmt.Errorf("no inventory file (use -i or set default_inventory)")
	}
	devices, err := inventory.Load(path)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("inventory %s is empty", path)
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	inventory.ApplyModelDefaults(devices, model)
	return devices, nil
}

func readTemplate(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no configuration template (use -c)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

// promptPassword reads a password without echo. Falls back to a plain
// line read when stdin is not a terminal (pipes, CI).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func orAny(s string) string {
	if s == "" {
		return "<per-device>"
	}
	return s
}
