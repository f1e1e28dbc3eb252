// Package config centralizes the directory layout and tuning knobs shared
// across the storage engine, the server and both CLI front ends.
package config

const (
	// ActiveFileName is the fixed name of the single writable datafile in a
	// store directory.
	ActiveFileName = "log.active"

	// PassiveExt is the extension used by immutable, serially-numbered
	// datafiles.
	PassiveExt = "passive"

	// MarkerFileName records which engine variant owns a store directory.
	MarkerFileName = "engine"

	// RecordsLimit is the number of obsolete records tolerated in the log
	// before compaction is triggered. Treated as a knob, not tuned.
	RecordsLimit = 1024

	// RecordsInCompacted is the maximum number of records written to a
	// single passive file produced by compaction.
	RecordsInCompacted = 100

	// MaxValueSizeWarn is a soft guideline, not an enforced cap: values
	// larger than this are still stored and served, but the server logs a
	// warning so operators notice unusually large payloads.
	MaxValueSizeWarn = 1 << 20 // 1 MiB

	// DefaultAddr is the default listen/connect address for the server and
	// client.
	DefaultAddr = "127.0.0.1:4000"
)

// Engine names the interchangeable storage backends behind the Engine
// capability set. The value is persisted verbatim in the marker file.
type Engine string

const (
	// EngineKvs is the log-structured engine described by this module.
	EngineKvs Engine = "kvs"

	// EngineBolt is the bbolt-backed B-tree engine, offered as an
	// interchangeable back end behind the same capability set.
	EngineBolt Engine = "bolt"
)

// Valid reports whether e names a known engine variant.
func (e Engine) Valid() bool {
	return e == EngineKvs || e == EngineBolt
}
