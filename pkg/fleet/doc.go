// Package fleet defines the AGV record, its status sum type, and the
// per-vehicle configuration that arbitration, kinematics, and recovery
// operate on. It holds data only — no tick logic lives here, matching the
// separation between the data model and the driver that composes it.
package fleet
