// Package world builds the minimal chunk stream a joining client needs:
// empty sections around spawn, an optional schematic paste, and the
// version-appropriate chunk packet body.
package world

import (
	"fmt"

	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Dimension is the spawn dimension; it decides section count, build
// height and skylight presence.
type Dimension uint8

const (
	Overworld Dimension = iota
	Nether
	End
)

// ParseDimension maps a configuration value to a dimension.
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "overworld":
		return Overworld, nil
	case "nether":
		return Nether, nil
	case "end":
		return End, nil
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Identifier is the dimension's registry id.
func (d Dimension) Identifier() string {
	switch d {
	case Nether:
		return "minecraft:the_nether"
	case End:
		return "minecraft:the_end"
	}
	return "minecraft:overworld"
}

// LegacyID is the pre-1.16 numeric dimension id.
func (d Dimension) LegacyID() int32 {
	switch d {
	case Nether:
		return -1
	case End:
		return 1
	}
	return 0
}

// MinY is the lowest block y. The overworld grew downward in 1.18.
func (d Dimension) MinY(v version.Protocol) int32 {
	if d == Overworld && v.AtLeast(version.V1_18) {
		return -64
	}
	return 0
}

// Height is the build height in blocks.
func (d Dimension) Height(v version.Protocol) int32 {
	if d == Overworld && v.AtLeast(version.V1_18) {
		return 384
	}
	return 256
}

// SectionCount is the number of 16-block sections per chunk column.
func (d Dimension) SectionCount(v version.Protocol) int {
	return int(d.Height(v)) / 16
}

// HasSkyLight reports whether pre-1.14 chunk bodies carry a skylight
// array for this dimension.
func (d Dimension) HasSkyLight() bool { return d == Overworld }
