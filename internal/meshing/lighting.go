package meshing

import (
	"math"

	"voxelmesh/internal/registry"
	"voxelmesh/internal/world"
)

// cornerLight is the decoded brightness of both light banks at a vertex.
type cornerLight struct {
	day, night uint8
}

type lighter struct {
	content *registry.Manager
	table   registry.LightTable
	ao      [3]float32 // multipliers for 5, 6 and 7 occluders
}

func newLighter(content *registry.Manager, lightGamma, aoGamma float64) lighter {
	aoGamma = math.Max(0.25, math.Min(4, aoGamma))
	return lighter{
		content: content,
		table:   registry.NewLightTable(lightGamma),
		ao: [3]float32{
			float32(math.Pow(0.75, 1/aoGamma)),
			float32(math.Pow(0.5, 1/aoGamma)),
			float32(math.Pow(0.25, 1/aoGamma)),
		},
	}
}

// flat is the light of a face between a and b: the brighter bank of the
// two nodes, raised to the brighter light source.
func (l *lighter) flat(a, b world.Node) cornerLight {
	src := max(l.content.Get(a.Content).LightSource, l.content.Get(b.Content).LightSource)
	day := max(a.LightBank(world.BankDay), b.LightBank(world.BankDay), src)
	night := max(a.LightBank(world.BankNight), b.LightBank(world.BankNight), src)
	return cornerLight{day: l.table.Decode(day), night: l.table.Decode(night)}
}

// smooth averages the light of the eight nodes sharing the lattice vertex
// (x, y, z), in snapshot cell coordinates. Opaque nodes count as occluders
// and darken the result once more than four of them surround the vertex.
func (l *lighter) smooth(snap *world.Snapshot, x, y, z int) cornerLight {
	var (
		daySum, nightSum int
		count, occluders int
		sourceMax        uint8
		sunlight         bool
	)
	for i := 0; i < 8; i++ {
		n := snap.At(x-1+i&1, y-1+(i>>1)&1, z-1+(i>>2)&1)
		if n.Content == world.ContentUnknown {
			continue
		}
		f := l.content.Get(n.Content)
		sourceMax = max(sourceMax, f.LightSource)
		if f.Solidness == 2 {
			occluders++
			continue
		}
		d := n.LightBank(world.BankDay)
		if d == world.LightSun {
			sunlight = true
		}
		daySum += int(l.table.Decode(d))
		nightSum += int(l.table.Decode(n.LightBank(world.BankNight)))
		count++
	}

	var day, night float32
	if count > 0 {
		day = float32(daySum) / float32(count)
		night = float32(nightSum) / float32(count)
	}
	if sunlight {
		day = 255
	}

	boost := float32(l.table.Decode(sourceMax))
	skipDay, skipNight := false, false
	if boost >= day {
		day, skipDay = boost, true
	}
	if boost >= night {
		night, skipNight = boost, true
	}
	if occluders > 4 {
		k := l.ao[min(occluders-5, 2)]
		if !skipDay {
			day *= k
		}
		if !skipNight {
			night *= k
		}
	}
	return cornerLight{day: roundLight(day), night: roundLight(night)}
}

func roundLight(v float32) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)))))
}

// shadeFactor darkens faces by their direction so cube sides stay
// distinguishable under uniform light.
func shadeFactor(n [3]int) float32 {
	x2 := float32(n[0] * n[0])
	y2 := float32(n[1] * n[1])
	z2 := float32(n[2] * n[2])
	if n[1] < 0 {
		return 0.670820*x2 + 0.447213*y2 + 0.836660*z2
	}
	return 0.670820*x2 + 1.000000*y2 + 0.836660*z2
}

// lightColor applies shading and tint to a decoded light value.
func lightColor(light uint8, shade float32, tint uint32) [3]uint8 {
	r, g, b := float32(255), float32(255), float32(255)
	if tint != 0 {
		r = float32(tint >> 16 & 0xFF)
		g = float32(tint >> 8 & 0xFF)
		b = float32(tint & 0xFF)
	}
	l := float32(light) * shade / 255
	return [3]uint8{roundLight(r * l), roundLight(g * l), roundLight(b * l)}
}
