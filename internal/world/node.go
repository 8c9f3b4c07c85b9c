package world

// ContentID identifies a node type in the content registry.
type ContentID uint16

const (
	// ContentAir is the empty node.
	ContentAir ContentID = 0
	// ContentUnknown marks nodes whose chunk is not loaded. It is treated as
	// opaque to light and never produces faces.
	ContentUnknown ContentID = 0xFFFF
)

// Light bank selectors.
const (
	BankDay   = 0
	BankNight = 1
)

const (
	// LightMax is the brightest non-sun light level.
	LightMax = 14
	// LightSun marks direct sunlight in the day bank.
	LightSun = 15
)

// Node is a single voxel cell. Light packs the day bank in the low nibble and
// the night bank in the high nibble. Param2 carries rotation, colour or liquid
// level depending on the content type.
type Node struct {
	Content ContentID
	Light   uint8
	Param2  uint8
}

// UnknownNode is returned for positions outside any loaded chunk.
var UnknownNode = Node{Content: ContentUnknown}

// NewNode returns a node with the given content and light levels.
func NewNode(c ContentID, day, night uint8) Node {
	return Node{Content: c, Light: day&0x0F | night<<4}
}

// LightBank returns the light level stored for bank.
func (n Node) LightBank(bank int) uint8 {
	if bank == BankNight {
		return n.Light >> 4
	}
	return n.Light & 0x0F
}

// SetLightBank stores level for bank.
func (n *Node) SetLightBank(bank int, level uint8) {
	level &= 0x0F
	if bank == BankNight {
		n.Light = n.Light&0x0F | level<<4
		return
	}
	n.Light = n.Light&0xF0 | level
}
