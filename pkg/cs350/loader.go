// Package cs350 loads triangle meshes stored in the CS350 binary format.
//
// The format is:
//
//	["CS350"][vertexCount u32][indexCount u32][hasPositions u8][hasNormals u8][hasUVs u8]
//	followed by vertexCount vertex records (position, normal, uv — each only
//	when flagged), followed by indexCount/3 faces of three int32 indices when
//	indexCount > 0. All integers and floats are little-endian.
//
// An indexCount of 0 means the vertices form triangle triples directly.
package cs350

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var signature = [5]byte{'C', 'S', '3', '5', '0'}

// PrimitiveData is a single loaded mesh. Positions are always present;
// normals and uvs only when the file carries them.
type PrimitiveData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Faces     [][3]int32

	// Bounding volume over all positions.
	BVMin, BVMax mgl32.Vec3
}

// TriangleSoup expands the mesh into a flat triangle list, resolving face
// indices when the mesh is indexed.
func (p *PrimitiveData) TriangleSoup() [][3]mgl32.Vec3 {
	if len(p.Faces) > 0 {
		out := make([][3]mgl32.Vec3, len(p.Faces))
		for i, f := range p.Faces {
			out[i] = [3]mgl32.Vec3{p.Positions[f[0]], p.Positions[f[1]], p.Positions[f[2]]}
		}

		return out
	}

	out := make([][3]mgl32.Vec3, 0, len(p.Positions)/3)
	for i := 0; i+2 < len(p.Positions); i += 3 {
		out = append(out, [3]mgl32.Vec3{p.Positions[i], p.Positions[i+1], p.Positions[i+2]})
	}

	return out
}

// LoadBinary reads a CS350 binary mesh from a file.
func LoadBinary(path string) (*PrimitiveData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mesh file %q", path)
	}

	defer f.Close()

	data, err := ReadBinary(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mesh from %q", path)
	}

	return data, nil
}

// ReadBinary reads a CS350 binary mesh from r.
func ReadBinary(r io.Reader) (*PrimitiveData, error) {
	var sig [5]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read signature")
	}
	if sig != signature {
		return nil, errors.Errorf("invalid signature %q", sig)
	}

	var header struct {
		VertexCount  uint32
		IndexCount   uint32
		HasPositions uint8
		HasNormals   uint8
		HasUVs       uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	if header.HasPositions == 0 {
		return nil, errors.New("mesh has no positions")
	}

	data := &PrimitiveData{
		Positions: make([]mgl32.Vec3, 0, header.VertexCount),
	}

	for i := uint32(0); i < header.VertexCount; i++ {
		var pos mgl32.Vec3
		if err := binary.Read(r, binary.LittleEndian, &pos); err != nil {
			return nil, errors.Wrapf(err, "failed to read position of vertex %d", i)
		}

		data.Positions = append(data.Positions, pos)

		if header.HasNormals != 0 {
			var normal mgl32.Vec3
			if err := binary.Read(r, binary.LittleEndian, &normal); err != nil {
				return nil, errors.Wrapf(err, "failed to read normal of vertex %d", i)
			}

			data.Normals = append(data.Normals, normal)
		}

		if header.HasUVs != 0 {
			var uv mgl32.Vec2
			if err := binary.Read(r, binary.LittleEndian, &uv); err != nil {
				return nil, errors.Wrapf(err, "failed to read uv of vertex %d", i)
			}

			data.UVs = append(data.UVs, uv)
		}
	}

	for i := uint32(0); i+2 < header.IndexCount; i += 3 {
		var face [3]int32
		if err := binary.Read(r, binary.LittleEndian, &face); err != nil {
			return nil, errors.Wrapf(err, "failed to read face %d", i/3)
		}

		for _, idx := range face {
			if idx < 0 || idx >= int32(header.VertexCount) {
				return nil, errors.Errorf("face %d references vertex %d out of range [0, %d)", i/3, idx, header.VertexCount)
			}
		}

		data.Faces = append(data.Faces, face)
	}

	data.computeBoundingVolume()

	return data, nil
}

func (p *PrimitiveData) computeBoundingVolume() {
	if len(p.Positions) == 0 {
		return
	}

	p.BVMin, p.BVMax = p.Positions[0], p.Positions[0]
	for _, pos := range p.Positions[1:] {
		for i := 0; i < 3; i++ {
			if pos[i] < p.BVMin[i] {
				p.BVMin[i] = pos[i]
			}
			if pos[i] > p.BVMax[i] {
				p.BVMax[i] = pos[i]
			}
		}
	}
}
