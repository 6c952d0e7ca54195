package tile

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Source supplies decoded tiles for a frame. *Client implements it; tests
// substitute in-memory sources.
type Source interface {
	Fetch(ctx context.Context, level int, ts time.Time, x, y int) (image.Image, error)
}

// Assembler downloads a box of tiles concurrently and pastes them into one
// composite.
type Assembler struct {
	Source      Source
	Concurrency int
	// ShowProgress draws a terminal progress bar while tiles download.
	ShowProgress bool
}

// Assemble fetches every tile in the box for the frame captured at ts and
// pastes them by grid coordinate. The paste order is fixed, so the composite
// is byte-identical regardless of download completion order.
func (a *Assembler) Assemble(ctx context.Context, level int, box Box, ts time.Time) (*Composite, error) {
	if err := box.validate(level); err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if a.ShowProgress {
		bar = progressbar.NewOptions(box.Count(),
			progressbar.OptionSetDescription("downloading tiles"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	group, ctx := errgroup.WithContext(ctx)
	if a.Concurrency > 0 {
		group.SetLimit(a.Concurrency)
	}

	var mu sync.Mutex
	tiles := make(map[image.Point]image.Image, box.Count())

	for x := box.X1; x <= box.X2; x++ {
		for y := box.Y1; y <= box.Y2; y++ {
			x, y := x, y
			group.Go(func() error {
				img, err := a.Source.Fetch(ctx, level, ts, x, y)
				if err != nil {
					return err
				}
				mu.Lock()
				tiles[image.Pt(x, y)] = img
				mu.Unlock()
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size*box.Width(), Size*box.Height()))
	for y := box.Y1; y <= box.Y2; y++ {
		for x := box.X1; x <= box.X2; x++ {
			img, ok := tiles[image.Pt(x, y)]
			if !ok {
				return nil, fmt.Errorf("tile (%d,%d) missing after download", x, y)
			}
			rect := image.Rect(Size*(x-box.X1), Size*(y-box.Y1), Size*(x-box.X1+1), Size*(y-box.Y1+1))
			draw.Draw(dst, rect, img, img.Bounds().Min, draw.Src)
		}
	}

	return &Composite{
		Image:     dst,
		Level:     level,
		Offset:    image.Pt(box.X1, box.Y1),
		Timestamp: ts,
	}, nil
}
