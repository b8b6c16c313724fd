package building

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// Floor binds a human floor number to its vendor area id.
type Floor struct {
	Floor  int `yaml:"floor"`
	AreaID int `yaml:"area_id"`
}

type topologyFile struct {
	BuildingID string  `yaml:"building_id"`
	GroupID    string  `yaml:"group_id"`
	Floors     []Floor `yaml:"floors"`
}

// Mapping resolves floor numbers to area ids and back for one building.
// Without an explicit topology it falls back to the sandbox convention
// area = floor * 1000.
type Mapping struct {
	BuildingID  string
	GroupID     string
	floorToArea map[int]int
	areaToFloor map[int]int
}

// Default returns the convention-based mapping used by the virtual
// sandbox buildings.
func Default(buildingID, groupID string) *Mapping {
	return &Mapping{
		BuildingID: buildingID,
		GroupID:    groupID,
	}
}

// LoadFile reads a YAML building topology.
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read building file: %w", err)
	}

	var tf topologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse building file: %w", err)
	}
	if tf.BuildingID == "" {
		return nil, fmt.Errorf("building file %s: building_id is required", path)
	}
	if tf.GroupID == "" {
		tf.GroupID = constants.DefaultGroupID
	}

	m := &Mapping{
		BuildingID:  tf.BuildingID,
		GroupID:     tf.GroupID,
		floorToArea: make(map[int]int, len(tf.Floors)),
		areaToFloor: make(map[int]int, len(tf.Floors)),
	}
	for _, f := range tf.Floors {
		if _, dup := m.floorToArea[f.Floor]; dup {
			return nil, fmt.Errorf("building file %s: duplicate floor %d", path, f.Floor)
		}
		if _, dup := m.areaToFloor[f.AreaID]; dup {
			return nil, fmt.Errorf("building file %s: duplicate area %d", path, f.AreaID)
		}
		m.floorToArea[f.Floor] = f.AreaID
		m.areaToFloor[f.AreaID] = f.Floor
	}
	return m, nil
}

// AreaForFloor resolves a floor number to its area id.
func (m *Mapping) AreaForFloor(floor int) (int, error) {
	if m.floorToArea == nil {
		return floor * constants.AreasPerFloor, nil
	}
	area, ok := m.floorToArea[floor]
	if !ok {
		return 0, fmt.Errorf("building %s: unknown floor %d", m.BuildingID, floor)
	}
	return area, nil
}

// FloorForArea is the inverse of AreaForFloor.
func (m *Mapping) FloorForArea(area int) (int, error) {
	if m.areaToFloor == nil {
		if area%constants.AreasPerFloor != 0 {
			return 0, fmt.Errorf("building %s: area %d does not map to a floor", m.BuildingID, area)
		}
		return area / constants.AreasPerFloor, nil
	}
	floor, ok := m.areaToFloor[area]
	if !ok {
		return 0, fmt.Errorf("building %s: unknown area %d", m.BuildingID, area)
	}
	return floor, nil
}
