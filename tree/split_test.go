package tree

import (
	"testing"

	"github.com/ramenhut/simple-rdf/imageset"
)

func TestProjectCoordIdempotentAndInBounds(t *testing.T) {
	img := imageset.NewImage(10, 10)

	offsets := []struct{ dx, dy int }{
		{0, 0}, {5, 0}, {-5, 0}, {0, 5}, {0, -5},
		{20, 20}, {-20, -20}, {9, 9}, {-9, -9},
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for _, o := range offsets {
				px, py := projectCoord(img, x, y, o.dx, o.dy)
				if px < 0 || px >= img.Width || py < 0 || py >= img.Height {
					t.Fatalf("projectCoord(%d,%d,%d,%d) = (%d,%d), out of bounds", x, y, o.dx, o.dy, px, py)
				}

				qx, qy := projectCoord(img, px, py, 0, 0)
				if qx != px || qy != py {
					t.Fatalf("projectCoord not idempotent: project(project(p,d),0) = (%d,%d), want (%d,%d)", qx, qy, px, py)
				}
			}
		}
	}
}

func TestProjectCoordReflectsPastBoundary(t *testing.T) {
	img := imageset.NewImage(10, 10)

	x, y := projectCoord(img, img.Width/2, 0, img.Width/2+5, 0)
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		t.Fatalf("projectCoord(%d,0,%d,0) = (%d,%d), out of bounds", img.Width/2, img.Width/2+5, x, y)
	}
}

func TestSplitFunctionEvaluateDeterministic(t *testing.T) {
	img := imageset.NewImage(4, 4)
	img.Set(0, 0, 10)
	img.Set(1, 0, 200)

	f := &SplitFunction{params: []offset{{dx: 1, dy: 0}}}

	if got := f.Evaluate(img, 0, 0); got != false {
		t.Fatalf("Evaluate at (0,0) with neighbor brighter = %v, want false", got)
	}
	if got := f.Evaluate(img, 1, 0); got != true {
		t.Fatalf("Evaluate at (1,0) with neighbor darker = %v, want true", got)
	}
}
