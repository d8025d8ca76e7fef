package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fleet is the factory roster read from a YAML file:
//
//	factories:
//	  - name: Seoul Plant
//	    location: Seoul
type Fleet struct {
	Factories []FleetFactory `yaml:"factories"`
}

type FleetFactory struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// DefaultFleet is used when no fleet file is given.
var DefaultFleet = Fleet{Factories: []FleetFactory{
	{Name: "Seoul Plant", Location: "Seoul"},
	{Name: "Busan Works", Location: "Busan"},
	{Name: "Incheon Assembly", Location: "Incheon"},
	{Name: "Daegu Foundry", Location: "Daegu"},
}}

// LoadFleet decodes and validates a fleet document. Unknown keys are rejected
// so typos do not silently drop factories.
func LoadFleet(r io.Reader) (*Fleet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fleet Fleet
	if err := dec.Decode(&fleet); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fleet: %w", err)
	}
	seen := make(map[string]bool, len(fleet.Factories))
	for i, f := range fleet.Factories {
		name := strings.TrimSpace(f.Name)
		if name == "" || strings.TrimSpace(f.Location) == "" {
			return nil, fmt.Errorf("fleet entry %d: name and location are required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("fleet entry %d: duplicate factory %q", i+1, name)
		}
		seen[name] = true
	}
	return &fleet, nil
}

// LoadFleetFile reads a fleet from disk.
func LoadFleetFile(path string) (*Fleet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fleet file: %w", err)
	}
	defer f.Close()
	return LoadFleet(f)
}
