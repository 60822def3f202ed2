package ledgerlens

import "errors"

// Sentinel errors.
var (
	// ErrNoObjects is returned when a report selects no objects.
	ErrNoObjects = errors.New("ledgerlens: report selects no objects")

	// ErrUnknownObject is returned when a report references an object the
	// catalog doesn't declare.
	ErrUnknownObject = errors.New("ledgerlens: unknown object")

	// ErrUnknownField is returned when a report references a field its
	// object doesn't declare.
	ErrUnknownField = errors.New("ledgerlens: unknown field")

	// ErrInvalidTimeRange is returned for unparseable or inverted ranges.
	ErrInvalidTimeRange = errors.New("ledgerlens: invalid time range")

	// ErrUnknownBlock is returned when a calculation operand references a
	// block id the formula doesn't define.
	ErrUnknownBlock = errors.New("ledgerlens: calculation references unknown block")
)
