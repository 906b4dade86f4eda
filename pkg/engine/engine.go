package engine

import (
	"io"
	"log"
	"math"
	"sort"

	"github.com/openfleet/agvsim/pkg/arbiter"
	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
	"github.com/openfleet/agvsim/pkg/kinematics"
	"github.com/openfleet/agvsim/pkg/recovery"
	"github.com/openfleet/agvsim/pkg/rng"
	"github.com/openfleet/agvsim/pkg/simconfig"
	"github.com/openfleet/agvsim/pkg/simerr"
)

// ConfigKey names an updateConfig field.
type ConfigKey string

const (
	KeyMaxSpeed         ConfigKey = "maxSpeed"
	KeyAcceleration     ConfigKey = "acceleration"
	KeyDeceleration     ConfigKey = "deceleration"
	KeySafetyDistance   ConfigKey = "safetyDistance"
	KeyHardBorrowLength ConfigKey = "hardBorrowLength"
)

// spawnPalette cycles cosmetic colors across spawned AGVs; purely
// decorative, has no bearing on simulation semantics.
var spawnPalette = []string{
	"#e63946", "#457b9d", "#2a9d8f", "#f4a261", "#9b5de5",
	"#ffb703", "#06d6a0", "#ef476f", "#118ab2", "#8338ec",
}

// Engine owns the active graph and the fleet exclusively. External
// collaborators only ever observe it through Snapshot and mutate it
// through the command methods below; nothing outside this package holds a
// *fleet.AGV.
type Engine struct {
	graph *graph.Graph
	agvs  map[int]*fleet.AGV
	order []int // insertion order, for deterministic iteration and spawn-node scan

	nextID      int
	planCounter int64
	now         int64

	defaultFleet fleet.Config
	engineCfg    simconfig.EngineCfg

	autoPilot bool
	rngSrc    *rng.Source

	logger *log.Logger
}

// New creates an engine over mapData with the given configuration. The
// engine's own PRNG (spawn fallback, auto-pilot) is seeded from cfg.Map.Seed,
// independent of whatever Source produced mapData, so a fixed seed plus a
// fixed command trace reproduces a bit-exact run.
func New(mapData graph.MapData, cfg simconfig.Config) *Engine {
	return &Engine{
		graph:        graph.Build(mapData),
		agvs:         make(map[int]*fleet.AGV),
		nextID:       1,
		defaultFleet: fleetConfigFromCfg(cfg.Fleet),
		engineCfg:    cfg.Engine,
		autoPilot:    cfg.Engine.AutoPilot,
		rngSrc:       rng.NewSource(rng.SeedFromString(cfg.Map.Seed)),
		logger:       log.New(io.Discard, "", 0),
	}
}

func fleetConfigFromCfg(f simconfig.FleetCfg) fleet.Config {
	return fleet.Config{
		MaxSpeed:         f.MaxSpeed,
		Acceleration:     f.Acceleration,
		Deceleration:     f.Deceleration,
		SafetyDistance:   f.SafetyDistance,
		HardBorrowLength: f.HardBorrowLength,
	}
}

// SetLogger replaces the engine's diagnostic logger. Pass nil to silence it
// again; an engine built by New already logs to io.Discard.
func (e *Engine) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	e.logger = l
}

// SetAutoPilot enables or disables automatic target assignment for idle
// and completed vehicles.
func (e *Engine) SetAutoPilot(on bool) {
	e.autoPilot = on
}

// Now returns the current tick count.
func (e *Engine) Now() int64 {
	return e.now
}

// SetMap atomically clears the fleet and swaps in a new graph. AGV ids are
// not reused across a SetMap call.
func (e *Engine) SetMap(mapData graph.MapData) {
	e.graph = graph.Build(mapData)
	e.agvs = make(map[int]*fleet.AGV)
	e.order = nil
}

// Spawn places a new AGV at a node not within 2*SafetyDistance of any
// existing AGV, falling back to a uniformly random node if no such node
// exists, and returns its id. Fails with an EmptyMap error if the active
// map has no nodes.
func (e *Engine) Spawn() (int, error) {
	ids := e.graph.NodeIDs()
	if len(ids) == 0 {
		return 0, simerr.New(simerr.KindEmptyMap, "cannot spawn: active map has no nodes")
	}
	sort.Strings(ids)

	nodeID := e.pickSpawnNode(ids)
	n, _ := e.graph.Node(nodeID)

	id := e.nextID
	e.nextID++
	a := fleet.New(id, nodeID, float64(n.X), float64(n.Y), spawnPalette[id%len(spawnPalette)], e.defaultFleet)
	e.agvs[id] = a
	e.order = append(e.order, id)
	e.logger.Printf("spawn: agv=%d node=%s", id, nodeID)
	return id, nil
}

// pickSpawnNode scans sortedIDs for the first node at least 2*SafetyDistance
// from every existing AGV, falling back to a PRNG-chosen node among all ids.
func (e *Engine) pickSpawnNode(sortedIDs []string) string {
	threshold := 2 * e.defaultFleet.SafetyDistance
	for _, id := range sortedIDs {
		n, _ := e.graph.Node(id)
		if e.clearOfFleet(n, threshold) {
			return id
		}
	}
	return sortedIDs[e.rngSrc.Intn(len(sortedIDs))]
}

func (e *Engine) clearOfFleet(n graph.Node, threshold float64) bool {
	for _, id := range e.order {
		a := e.agvs[id]
		dx := float64(n.X) - a.X
		dy := float64(n.Y) - a.Y
		if math.Sqrt(dx*dx+dy*dy) < threshold {
			return false
		}
	}
	return true
}

// SetTarget plans a path from agvID's effective position to nodeID and
// assigns it. If the AGV is mid-edge (Progress > 0) planning starts from
// the far end of its current edge, and that node is prefixed onto the
// result so the vehicle finishes crossing before following the new route.
// An unreachable nodeID returns a NoPath error and leaves the AGV IDLE
// with an empty path (or, if the call interrupted a mid-edge crossing,
// lets it finish that edge, on whose arrival it becomes COMPLETED with an
// empty path and no target).
func (e *Engine) SetTarget(agvID int, nodeID string) error {
	a, ok := e.agvs[agvID]
	if !ok {
		return simerr.New(simerr.KindInvalidAgvID, "no AGV with id %d", agvID)
	}
	if !e.graph.HasNode(nodeID) {
		return simerr.New(simerr.KindInvalidNodeID, "no node %q in active map", nodeID)
	}
	return e.planTarget(a, nodeID)
}

// planTarget is the shared planning path used by SetTarget and auto-pilot.
func (e *Engine) planTarget(a *fleet.AGV, nodeID string) error {
	e.planCounter++
	a.PathPlanningTime = e.planCounter
	a.TargetNode = nodeID
	a.PathRank = 0
	a.RetryCount = 0
	a.WaitTimer = 0
	a.WaitReason = ""

	startNode := a.CurrentNode
	var prefix []string
	if a.Progress > 0 && len(a.Path) > 0 {
		startNode = a.Path[0]
		prefix = []string{startNode}
	}

	if startNode == nodeID {
		a.Path = prefix
		a.Status = fleet.StatusMoving
		a.UpdateReservations()
		return nil
	}

	steps := e.graph.FindPath(startNode, nodeID, nil, nil)
	if len(steps) == 0 {
		if len(prefix) == 0 {
			a.Path = nil
			a.TargetNode = ""
			a.Status = fleet.StatusIdle
			a.WaitReason = "no path"
			a.UpdateReservations()
			return simerr.New(simerr.KindNoPath, "no path from %s to %s", startNode, nodeID)
		}
		// Mid-edge: finish the edge already underway; on arrival kinematics
		// empties Path and marks the AGV COMPLETED (TargetNode is already
		// unset).
		a.Path = prefix
		a.TargetNode = ""
		a.WaitReason = "no path"
		a.Status = fleet.StatusMoving
		a.UpdateReservations()
		return simerr.New(simerr.KindNoPath, "no path from %s to %s", startNode, nodeID)
	}

	a.Path = append(prefix, steps...)
	a.Status = fleet.StatusMoving
	a.UpdateReservations()
	return nil
}

// RemoveAgv deletes an AGV from the fleet. Its lease, if any, is released
// as part of removal.
func (e *Engine) RemoveAgv(agvID int) error {
	if _, ok := e.agvs[agvID]; !ok {
		return simerr.New(simerr.KindInvalidAgvID, "no AGV with id %d", agvID)
	}
	delete(e.agvs, agvID)
	for i, id := range e.order {
		if id == agvID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateConfig sets one configuration key on a single AGV, or on the fleet
// default applied to future spawns when agvID is nil. Returns
// InvalidConfigValue if value falls outside the allowed range for key, or
// InvalidAgvId if agvID names an unknown vehicle.
func (e *Engine) UpdateConfig(agvID *int, key ConfigKey, value float64) error {
	if err := validateConfigValue(key, value); err != nil {
		return err
	}
	if agvID == nil {
		applyConfigValue(&e.defaultFleet, key, value)
		return nil
	}
	a, ok := e.agvs[*agvID]
	if !ok {
		return simerr.New(simerr.KindInvalidAgvID, "no AGV with id %d", *agvID)
	}
	applyConfigValue(&a.Config, key, value)
	a.UpdateReservations()
	return nil
}

func validateConfigValue(key ConfigKey, value float64) error {
	switch key {
	case KeyMaxSpeed, KeyAcceleration, KeyDeceleration, KeySafetyDistance:
		if value <= 0 {
			return simerr.New(simerr.KindInvalidConfigValue, "%s must be > 0, got %g", key, value)
		}
	case KeyHardBorrowLength:
		if value != math.Trunc(value) || value < 0 || value > 5 {
			return simerr.New(simerr.KindInvalidConfigValue, "hardBorrowLength must be an integer in [0, 5], got %g", value)
		}
	default:
		return simerr.New(simerr.KindInvalidConfigValue, "unknown config key %q", key)
	}
	return nil
}

func applyConfigValue(cfg *fleet.Config, key ConfigKey, value float64) {
	switch key {
	case KeyMaxSpeed:
		cfg.MaxSpeed = value
	case KeyAcceleration:
		cfg.Acceleration = value
	case KeyDeceleration:
		cfg.Deceleration = value
	case KeySafetyDistance:
		cfg.SafetyDistance = value
	case KeyHardBorrowLength:
		cfg.HardBorrowLength = int(value)
	}
}

// Snapshot returns a read-only copy of the fleet as of the most recently
// completed tick.
func (e *Engine) Snapshot() fleet.Snapshot {
	return fleet.NewSnapshot(e.now, e.orderedAGVs())
}

func (e *Engine) orderedAGVs() []*fleet.AGV {
	out := make([]*fleet.AGV, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.agvs[id])
	}
	return out
}

// Tick advances the simulation by one step: every AGV is arbitrated against
// a single frozen read of the fleet taken at the start of the tick, so
// iteration order within the tick has no effect on the outcome, then has
// recovery or kinematics applied to it. Idle and completed vehicles are
// instead offered to the auto-pilot.
func (e *Engine) Tick() {
	snap := fleet.NewSnapshot(e.now, e.orderedAGVs())

	for _, id := range e.order {
		a := e.agvs[id]
		if len(a.Path) == 0 {
			e.tickIdle(a, snap)
			continue
		}
		e.tickNavigating(a, snap)
	}

	e.now++
}

func (e *Engine) tickNavigating(a *fleet.AGV, snap fleet.Snapshot) {
	egoNode, okEgo := e.graph.Node(a.CurrentNode)
	nextID := a.Path[0]
	nextNode, okNext := e.graph.Node(nextID)
	if !okEgo || !okNext {
		return
	}

	ego, ok := snap.ByID(a.ID)
	if !ok {
		return
	}

	verdict := arbiter.Arbitrate(ego, snap, egoNode, nextNode)
	statusBefore := a.Status

	switch verdict.Action {
	case arbiter.ActionMove:
		a.WaitTimer = 0
		a.RetryCount = 0
		a.WaitReason = ""
		kinematics.Advance(a, e.graph)
	case arbiter.ActionWait:
		blocker, _ := snap.ByID(verdict.BlockerID)
		recovery.HandleWait(a, e.graph, blocker)
		if a.Status == fleet.StatusWaiting {
			a.WaitReason = verdict.Reason
		}
	case arbiter.ActionRepathHeadOn:
		recovery.HandleHeadOn(a, e.graph, verdict.AvoidEdge)
	}

	if a.Status != statusBefore {
		e.logger.Printf("tick=%d agv=%d %s -> %s (%s)", e.now, a.ID, statusBefore, a.Status, verdict.Reason)
	}
}

// tickIdle offers an idle or completed, nearly-stationary vehicle to the
// auto-pilot: a per-tick Bernoulli draw decides whether it requests a new
// random target, excluding its own node and any node already claimed as
// another AGV's target.
func (e *Engine) tickIdle(a *fleet.AGV, snap fleet.Snapshot) {
	if !e.autoPilot || a.CurrentSpeed >= 0.1 {
		return
	}
	if !e.rngSrc.Chance(e.engineCfg.AutoPilotProbability) {
		return
	}

	taken := make(map[string]bool)
	for _, other := range snap.All() {
		if other.ID != a.ID && other.TargetNode != "" {
			taken[other.TargetNode] = true
		}
	}

	ids := e.graph.NodeIDs()
	sort.Strings(ids)
	var candidates []string
	for _, id := range ids {
		if id == a.CurrentNode || taken[id] {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return
	}

	target := candidates[e.rngSrc.Intn(len(candidates))]
	if err := e.planTarget(a, target); err == nil {
		e.logger.Printf("tick=%d autopilot: agv=%d -> %s", e.now, a.ID, target)
	}
}
