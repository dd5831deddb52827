// internal/registers/constants.go
package registers

// Telemetry register block layout constants.
// These values define the published protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerSnapshot is the fixed number of holding registers per rower.
const SlotsPerSnapshot = 16

// ---- SLOT INDICES ----

// SlotHealth holds the rower state (see Health codes).
const SlotHealth = 0

// SlotDistanceHi and SlotDistanceLo hold distance_dm as a big-endian uint32.
const SlotDistanceHi = 1
const SlotDistanceLo = 2

// SlotStrokeRate holds strokes per minute.
const SlotStrokeRate = 3

// SlotSpeed holds speed in dialect units.
const SlotSpeed = 4

// SlotStrokeCountHi and SlotStrokeCountLo hold stroke_count as a big-endian uint32.
const SlotStrokeCountHi = 5
const SlotStrokeCountLo = 6

// SlotSecondsSinceStroke holds whole seconds between the last stroke and the emission.
const SlotSecondsSinceStroke = 7

// ---- RESERVED RANGE ----

// Slots 8–11 are reserved for future use.
const SlotReservedStart = 8
const SlotReservedEnd = 11

// ---- CONSOLE NAME ----

// SlotNameStart is the first slot used for the console name.
// The name is always placed at the END of the block.
const SlotNameStart = 12

// SlotNameSlots is the number of slots reserved for the console name.
const SlotNameSlots = 4

// SlotNameEnd is the last slot used for the console name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the name.
const NameMaxChars = 8

// MaxSeconds caps SlotSecondsSinceStroke.
const MaxSeconds = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first snapshot.
const HealthUnknown uint16 = 0

// HealthRowing represents a snapshot with non-zero pace.
const HealthRowing uint16 = 1

// HealthIdle represents an idle snapshot (zero distance byte or staleness).
const HealthIdle uint16 = 2

// HealthFailed represents a session that ended with a protocol or transport fault.
const HealthFailed uint16 = 3
