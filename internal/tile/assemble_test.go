package tile

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"
)

// coordSource returns a solid tile whose color encodes its grid coordinate,
// optionally delaying each fetch so completion order varies between runs.
type coordSource struct {
	delay func(x, y int) time.Duration
}

func (s coordSource) Fetch(ctx context.Context, level int, ts time.Time, x, y int) (image.Image, error) {
	if s.delay != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay(x, y)):
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	c := color.RGBA{uint8(10 * x), uint8(10 * y), 0, 255}
	for py := 0; py < Size; py++ {
		for px := 0; px < Size; px++ {
			img.SetRGBA(px, py, c)
		}
	}
	return img, nil
}

type failingSource struct {
	err error
}

func (s failingSource) Fetch(ctx context.Context, level int, ts time.Time, x, y int) (image.Image, error) {
	return nil, s.err
}

func TestAssemble_PlacesTilesByCoordinate(t *testing.T) {
	a := &Assembler{Source: coordSource{}, Concurrency: 4}
	box := Box{1, 0, 2, 1}

	comp, err := a.Assemble(context.Background(), 4, box, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if w, h := comp.Image.Rect.Dx(), comp.Image.Rect.Dy(); w != 2*Size || h != 2*Size {
		t.Fatalf("composite size = %dx%d, want %dx%d", w, h, 2*Size, 2*Size)
	}
	if comp.Offset != image.Pt(1, 0) {
		t.Errorf("offset = %v, want (1,0)", comp.Offset)
	}

	// Sample the center of each pasted tile.
	for ty := 0; ty < 2; ty++ {
		for tx := 0; tx < 2; tx++ {
			got := comp.Image.RGBAAt(tx*Size+Size/2, ty*Size+Size/2)
			want := color.RGBA{uint8(10 * (tx + box.X1)), uint8(10 * (ty + box.Y1)), 0, 255}
			if got != want {
				t.Errorf("tile (%d,%d) center = %v, want %v", tx, ty, got, want)
			}
		}
	}
}

func TestAssemble_DeterministicAcrossCompletionOrders(t *testing.T) {
	box := Box{0, 0, 2, 2}

	forward := &Assembler{
		Source: coordSource{delay: func(x, y int) time.Duration {
			return time.Duration(x*3+y) * time.Millisecond
		}},
		Concurrency: 9,
	}
	reverse := &Assembler{
		Source: coordSource{delay: func(x, y int) time.Duration {
			return time.Duration((2-x)*3+(2-y)) * time.Millisecond
		}},
		Concurrency: 9,
	}

	a, err := forward.Assemble(context.Background(), 4, box, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	b, err := reverse.Assemble(context.Background(), 4, box, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("composites differ across completion orders")
	}
}

func TestAssemble_PropagatesFetchErrors(t *testing.T) {
	wantErr := fmt.Errorf("wrapped: %w", ErrNoImage)
	a := &Assembler{Source: failingSource{err: wantErr}, Concurrency: 2}

	_, err := a.Assemble(context.Background(), 4, FullDisk(4), time.Now().UTC())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAssemble_RejectsBadBox(t *testing.T) {
	a := &Assembler{Source: coordSource{}}
	if _, err := a.Assemble(context.Background(), 4, Box{0, 0, 4, 4}, time.Now().UTC()); err == nil {
		t.Error("expected error for box beyond level")
	}
}

func TestAssemble_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Assembler{
		Source: coordSource{delay: func(x, y int) time.Duration {
			return 50 * time.Millisecond
		}},
		Concurrency: 2,
	}
	if _, err := a.Assemble(ctx, 4, FullDisk(4), time.Now().UTC()); err == nil {
		t.Error("expected error from cancelled context")
	}
}
