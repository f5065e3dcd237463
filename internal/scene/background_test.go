package scene

import (
	"image"
	"testing"
)

type world struct{}

func (world) Width() float64        { return 100 }
func (world) Height() float64       { return 50 }
func (world) GroundMargin() float64 { return 10 }
func (world) Speed() float64        { return 0 }
func (world) Rand() float64         { return 0.5 }

type images map[string]image.Image

func (m images) Image(id string) image.Image { return m[id] }

// TestParallaxSpeeds verifies each layer moves by its modifier
func TestParallaxSpeeds(t *testing.T) {
	b := New(world{}, []Layer{
		{AssetID: "still", SpeedModifier: 0},
		{AssetID: "half", SpeedModifier: 0.5},
		{AssetID: "full", SpeedModifier: 1},
	}, nil)

	b.Update(4)
	b.Update(4)

	want := []float64{0, -4, -8}
	for i, x := range b.Offsets() {
		if x != want[i] {
			t.Errorf("Layer %d: expected x=%v, got %v", i, want[i], x)
		}
	}
}

// TestLayerWraps verifies a layer resets after scrolling its own width
func TestLayerWraps(t *testing.T) {
	b := New(world{}, []Layer{{AssetID: "strip", SpeedModifier: 1}}, images{
		"strip": image.NewRGBA(image.Rect(0, 0, 30, 10)),
	})

	for i := 0; i < 4; i++ {
		b.Update(10)
	}
	if x := b.Offsets()[0]; x != -40 {
		t.Fatalf("Expected -40 before wrapping, got %v", x)
	}
	b.Update(10)
	if x := b.Offsets()[0]; x != 0 {
		t.Errorf("Expected wrap to 0, got %v", x)
	}
}
