package service

import (
	"encoding/json"

	"github.com/google/uuid"

	"cdnflow/internal/topology"
)

// TopologySnapshot is the JSON shape persisted in scenarios.topology:
// enough to rebuild a flow.Graph without re-sending the full scenario.
type TopologySnapshot struct {
	Nodes  []topology.Node `json:"nodes"`
	Arcs   []topology.Arc  `json:"arcs"`
	Source int             `json:"source"`
	Sink   int             `json:"sink"`
	Demand int64           `json:"demand"`
}

// MarshalTopology snapshots a scenario's nodes/arcs/request triple into
// the JSON form stored in scenarios.topology.
func MarshalTopology(scn *topology.Scenario) ([]byte, error) {
	return json.Marshal(TopologySnapshot{
		Nodes:  scn.Nodes,
		Arcs:   scn.Arcs,
		Source: scn.Source,
		Sink:   scn.Sink,
		Demand: scn.Demand,
	})
}

// RebuildScenario reconstructs a topology.Scenario from a stored
// snapshot plus the ID/Name that live on the owning ScenarioRecord.
// Used by the HTTP layer to re-solve a previously created scenario.
func RebuildScenario(id uuid.UUID, name string, data []byte) (*topology.Scenario, error) {
	var snap TopologySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &topology.Scenario{
		ID:     id,
		Name:   name,
		Nodes:  snap.Nodes,
		Arcs:   snap.Arcs,
		Source: snap.Source,
		Sink:   snap.Sink,
		Demand: snap.Demand,
	}, nil
}
