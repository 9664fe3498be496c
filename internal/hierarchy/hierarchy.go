// Package hierarchy holds the sales org chart (zone → area → TSM → TA)
// used to scope which records a viewer may see. It is a pure lookup
// table; the approval logic never consults it.
package hierarchy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
)

// Person is one member of the org chart, keyed by mobile number.
type Person struct {
	Name   string `yaml:"name"`
	Mobile string `yaml:"mobile"`
}

// TSM is a territory sales manager and their territory assistants.
type TSM struct {
	Person `yaml:",inline"`
	TAs    []Person `yaml:"tas"`
}

// Area is one sales area under a zone.
type Area struct {
	Name string `yaml:"name"`
	AM   Person `yaml:"am"`
	TSMs []TSM  `yaml:"tsms"`
}

// Zone is one sales zone.
type Zone struct {
	Name  string `yaml:"name"`
	ZM    Person `yaml:"zm"`
	Areas []Area `yaml:"areas"`
}

// Table is the full org chart.
type Table struct {
	Zones []Zone `yaml:"zones"`
}

// Load reads the org chart from a YAML file. An empty path returns an
// empty table (no visibility scoping).
func Load(path string) (*Table, error) {
	if path == "" {
		return &Table{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy %s: %w", path, err)
	}
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse hierarchy %s: %w", path, err)
	}
	return t, nil
}

// SubordinateActorKeys returns the TA mobile numbers visible to the
// viewer: a TSM sees their own TAs, an AM every TA in their area, a ZM
// every TA in their zone, and NSM/CM see all TAs. Unknown viewers see
// nothing. The result is sorted and duplicate-free.
func (t *Table) SubordinateActorKeys(viewerKey string, role flow.Role) []string {
	keys := make(map[string]struct{})

	for _, zone := range t.Zones {
		zoneMatch := role == flow.RoleZM && zone.ZM.Mobile == viewerKey

		for _, area := range zone.Areas {
			areaMatch := role == flow.RoleAM && area.AM.Mobile == viewerKey

			for _, tsm := range area.TSMs {
				tsmMatch := role == flow.RoleTSM && tsm.Mobile == viewerKey
				all := role == flow.RoleNSM || role == flow.RoleCM

				if !all && !zoneMatch && !areaMatch && !tsmMatch {
					continue
				}
				for _, ta := range tsm.TAs {
					if ta.Mobile != "" {
						keys[ta.Mobile] = struct{}{}
					}
				}
			}
		}
	}

	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
