package mesh

import (
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// facePatterns упакованные шаблоны граней: 4 угла по 3 бита (x, y, z),
// младшие биты относятся к первому углу. Бит равен 1, если координата угла равна 1.
var facePatterns = [block.FaceCount]uint16{
	block.FaceTop:    0x7f2, // плоскость y=1
	block.FaceBottom: 0x948, // плоскость y=0
	block.FaceLeft:   0x0b4, // плоскость x=0
	block.FaceRight:  0xbd9, // плоскость x=1
	block.FaceFront:  0x2d0, // плоскость z=0
	block.FaceBack:   0x9bd, // плоскость z=1
}

// FaceCorners смещения углов каждой грани относительно начала блока.
// Углы 0-1-2 и 2-3-0 образуют два треугольника с нормалью наружу.
//
//	top:    (0,1,0) (0,1,1) (1,1,1) (1,1,0)
//	bottom: (0,0,0) (1,0,0) (1,0,1) (0,0,1)
//	left:   (0,0,1) (0,1,1) (0,1,0) (0,0,0)
//	right:  (1,0,0) (1,1,0) (1,1,1) (1,0,1)
//	front:  (0,0,0) (0,1,0) (1,1,0) (1,0,0)
//	back:   (1,0,1) (1,1,1) (0,1,1) (0,0,1)
var FaceCorners [block.FaceCount][4]mgl32.Vec3

// FaceNormals направление наружу для каждой грани
var FaceNormals = [block.FaceCount]mgl32.Vec3{
	block.FaceTop:    {0, 1, 0},
	block.FaceBottom: {0, -1, 0},
	block.FaceLeft:   {-1, 0, 0},
	block.FaceRight:  {1, 0, 0},
	block.FaceFront:  {0, 0, -1},
	block.FaceBack:   {0, 0, 1},
}

// faceNeighbour смещение соседа за гранью в координатах сетки [y][x][z]
var faceNeighbour = [block.FaceCount]struct{ dy, dx, dz int }{
	block.FaceTop:    {1, 0, 0},
	block.FaceBottom: {-1, 0, 0},
	block.FaceLeft:   {0, -1, 0},
	block.FaceRight:  {0, 1, 0},
	block.FaceFront:  {0, 0, -1},
	block.FaceBack:   {0, 0, 1},
}

// faceIndices порядок обхода углов квада
var faceIndices = [6]uint32{0, 1, 2, 2, 3, 0}

func init() {
	for f, pattern := range facePatterns {
		FaceCorners[f] = decodeFace(pattern)
	}
}

// decodeFace разворачивает 12-битный шаблон в 4 смещения
func decodeFace(pattern uint16) [4]mgl32.Vec3 {
	var corners [4]mgl32.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if pattern&1 == 1 {
				corners[i][axis] = 1
			}
			pattern >>= 1
		}
	}
	return corners
}
