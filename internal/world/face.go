package world

// Face identifies one of the six axis-aligned faces of a node or chunk.
type Face uint8

const (
	FaceEast   Face = iota // +X
	FaceWest               // -X
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceNorth              // +Z
	FaceSouth              // -Z
)

// FaceCount is the number of faces of a cube.
const FaceCount = 6

// FaceFor returns the face whose outward normal points along axis with sign.
func FaceFor(axis, sign int) Face {
	f := Face(axis * 2)
	if sign < 0 {
		f++
	}
	return f
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (f Face) Axis() int {
	return int(f) / 2
}

// Sign returns +1 for faces pointing along the positive axis, -1 otherwise.
func (f Face) Sign() int {
	if f%2 == 0 {
		return 1
	}
	return -1
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face {
	return f ^ 1
}

// Bit returns the face's bit in a 6-bit side mask.
func (f Face) Bit() uint8 {
	return 1 << f
}

// Step returns the chunk offset across this face.
func (f Face) Step() ChunkCoord {
	return axisStep(f.Axis(), f.Sign())
}

// Normal returns the integer outward normal.
func (f Face) Normal() [3]int {
	var n [3]int
	n[f.Axis()] = f.Sign()
	return n
}

func (f Face) String() string {
	switch f {
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	}
	return "invalid"
}

// AllSides is the side mask with every face set.
const AllSides uint8 = 0x3F
