package export

import (
	"encoding/json"
	"os"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

// AGVView is the JSON projection of one fleet.AGV record.
type AGVView struct {
	ID    int    `json:"id"`
	Color string `json:"color"`

	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Orientation  float64 `json:"orientation"`
	CurrentSpeed float64 `json:"currentSpeed"`

	CurrentNode      string   `json:"currentNode"`
	PreviousNode     string   `json:"previousNode,omitempty"`
	Path             []string `json:"path"`
	TargetNode       string   `json:"targetNode,omitempty"`
	Progress         float64  `json:"progress"`
	ProgressDistance float64  `json:"progressDistance"`

	PathRank      int      `json:"pathRank"`
	RetryCount    int      `json:"retryCount"`
	WaitTimer     int      `json:"waitTimer"`
	WaitReason    string   `json:"waitReason,omitempty"`
	ReservedNodes []string `json:"reservedNodes"`

	Status string `json:"status"`
}

// SnapshotView is the JSON projection of a fleet.Snapshot.
type SnapshotView struct {
	Now  int64     `json:"now"`
	AGVs []AGVView `json:"agvs"`
}

// BuildSnapshotView converts a fleet.Snapshot into its JSON-ready form.
func BuildSnapshotView(snap fleet.Snapshot) SnapshotView {
	all := snap.All()
	view := SnapshotView{Now: snap.Now, AGVs: make([]AGVView, len(all))}
	for i, a := range all {
		view.AGVs[i] = AGVView{
			ID:               a.ID,
			Color:            a.Color,
			X:                a.X,
			Y:                a.Y,
			Orientation:      a.Orientation,
			CurrentSpeed:     a.CurrentSpeed,
			CurrentNode:      a.CurrentNode,
			PreviousNode:     a.PreviousNode,
			Path:             append([]string(nil), a.Path...),
			TargetNode:       a.TargetNode,
			Progress:         a.Progress,
			ProgressDistance: a.ProgressDistance,
			PathRank:         a.PathRank,
			RetryCount:       a.RetryCount,
			WaitTimer:        a.WaitTimer,
			WaitReason:       a.WaitReason,
			ReservedNodes:    append([]string(nil), a.ReservedNodes...),
			Status:           a.Status.String(),
		}
	}
	return view
}

// SnapshotJSON serializes a fleet snapshot to indented JSON.
func SnapshotJSON(snap fleet.Snapshot) ([]byte, error) {
	return json.MarshalIndent(BuildSnapshotView(snap), "", "  ")
}

// SaveSnapshotJSON writes a fleet snapshot to path as indented JSON, with
// 0644 permissions.
func SaveSnapshotJSON(snap fleet.Snapshot, path string) error {
	data, err := SnapshotJSON(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// MapJSON serializes a MapData to indented JSON.
func MapJSON(m graph.MapData) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// SaveMapJSON writes a MapData to path as indented JSON, with 0644
// permissions.
func SaveMapJSON(m graph.MapData, path string) error {
	data, err := MapJSON(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
