package pbled

import (
	"fmt"
	"sync"

	"github.com/jvanderberg/pixelblit/errcode"
)

// Raster pool limits.
const (
	MaxRasters     = 16
	RasterPoolSize = 8192
)

// Raster is a 2D canvas with a fixed mapping onto physical pixels.
type Raster struct {
	id      int
	cfg     RasterConfig
	offset  int
	pixels  []Color
	mapping []Address
}

// rasterPool hands out slices of shared pixel and address arrays. Space is
// reclaimed stack-wise: freeing the newest raster returns its slice, freeing
// an older one leaves a hole until every raster is gone.
type rasterPool struct {
	mu      sync.Mutex
	slots   [MaxRasters]*Raster
	pixels  []Color
	mapping []Address
	used    int
}

// CreateRaster builds a raster and its address mapping and returns its id.
func (d *Driver) CreateRaster(rc RasterConfig) (int, error) {
	g := geometry{
		strings: d.cfg.NumStrings,
		boards:  d.cfg.NumBoards,
		pixels:  d.cfg.MaxPixelLength,
	}
	if err := g.validate(rc); err != nil {
		return -1, err
	}

	p := &d.rasters
	p.mu.Lock()
	defer p.mu.Unlock()

	n := rc.Width * rc.Height
	if p.used+n > RasterPoolSize {
		return -1, errcode.New(errcode.PoolExhausted, "pbled.CreateRaster",
			fmt.Sprintf("%d cells requested, %d free", n, RasterPoolSize-p.used))
	}

	slot := -1
	for i, r := range p.slots {
		if r == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return -1, errcode.New(errcode.PoolExhausted, "pbled.CreateRaster",
			fmt.Sprintf("all %d raster slots in use", MaxRasters))
	}

	if p.pixels == nil {
		p.pixels = make([]Color, RasterPoolSize)
		p.mapping = make([]Address, RasterPoolSize)
	}

	r := &Raster{
		id:      slot,
		cfg:     rc,
		offset:  p.used,
		pixels:  p.pixels[p.used : p.used+n : p.used+n],
		mapping: p.mapping[p.used : p.used+n : p.used+n],
	}
	clear(r.pixels)
	buildMapping(r.mapping, rc, g)

	p.used += n
	p.slots[slot] = r

	d.logger.Debug(
		"raster created",
		"id", slot,
		"width", rc.Width,
		"height", rc.Height,
		"wrap", rc.Wrap.String(),
		"pool_used", p.used)

	return slot, nil
}

// Raster returns the raster with the given id, or nil.
func (d *Driver) Raster(id int) *Raster {
	p := &d.rasters
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= MaxRasters {
		return nil
	}
	return p.slots[id]
}

// DestroyRaster frees a raster. Unknown ids are ignored.
func (d *Driver) DestroyRaster(id int) {
	p := &d.rasters
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= MaxRasters || p.slots[id] == nil {
		return
	}

	r := p.slots[id]
	if r.offset+len(r.pixels) == p.used {
		p.used = r.offset
	}
	p.slots[id] = nil

	empty := true
	for _, r := range p.slots {
		if r != nil {
			empty = false
			break
		}
	}
	if empty {
		p.used = 0
	}
}

// DestroyAllRasters frees every raster and empties the pool.
func (d *Driver) DestroyAllRasters() {
	p := &d.rasters
	p.mu.Lock()
	defer p.mu.Unlock()

	p.slots = [MaxRasters]*Raster{}
	p.used = 0
}

// RasterPoolUsed returns the number of pool cells currently reserved.
func (d *Driver) RasterPoolUsed() int {
	p := &d.rasters
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.used
}

// ID returns the raster id.
func (r *Raster) ID() int { return r.id }

// Width returns the canvas width.
func (r *Raster) Width() int { return r.cfg.Width }

// Height returns the canvas height.
func (r *Raster) Height() int { return r.cfg.Height }

// Config returns the configuration the raster was created with.
func (r *Raster) Config() RasterConfig { return r.cfg }

// SetPixel sets a canvas cell. Out of range cells are ignored.
func (r *Raster) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= r.cfg.Width || y >= r.cfg.Height {
		return
	}
	r.pixels[y*r.cfg.Width+x] = c
}

// GetPixel returns a canvas cell, or black when out of range.
func (r *Raster) GetPixel(x, y int) Color {
	if x < 0 || y < 0 || x >= r.cfg.Width || y >= r.cfg.Height {
		return 0
	}
	return r.pixels[y*r.cfg.Width+x]
}

// Fill sets every cell to c.
func (r *Raster) Fill(c Color) {
	for i := range r.pixels {
		r.pixels[i] = c
	}
}

// Address returns the physical address of a cell.
func (r *Raster) Address(x, y int) (Address, bool) {
	if x < 0 || y < 0 || x >= r.cfg.Width || y >= r.cfg.Height {
		return Address{}, false
	}
	return r.mapping[y*r.cfg.Width+x], true
}

// Show copies the canvas into the driver's back buffer through the mapping.
// It does not commit the buffer.
func (r *Raster) Show(d *Driver) {
	for i, a := range r.mapping {
		d.SetAddress(a, r.pixels[i])
	}
}
