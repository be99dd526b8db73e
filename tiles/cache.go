package tiles

import (
	"context"
	"image"
	"log"
	"sort"

	"github.com/vsariola/beatmap"
)

type (
	// Cache holds the tiles of one tile set, loading each tile at most once.
	// Tiles are never evicted; when the tile set changes, the cache is closed
	// and a new one is made.
	//
	// Loads run on goroutines of their own, but their results are applied by
	// functions sent to the results channel, which the owner of the cache must
	// run on the goroutine that uses the cache. Thus the cache itself needs no
	// locking, as long as all its methods are called from that one goroutine.
	Cache struct {
		set     beatmap.TileSet
		loader  Loader
		tiles   map[int]*Tile
		results chan<- func()
		notify  chan<- any
		sem     chan struct{}
		ctx     context.Context
		cancel  context.CancelFunc
		closed  bool
	}

	// Tile is a tile in the cache. State, Image and Err change only when a
	// load result is applied; Done is closed at that point.
	Tile struct {
		Index int
		URL   string
		State State
		Image image.Image
		Err   error
		done  chan struct{}
	}

	State int

	// TileLoadFailed is sent to the notify channel of the cache when a tile
	// could not be loaded. The tile is not retried.
	TileLoadFailed struct {
		Index int
		URL   string
		Err   error
	}
)

const (
	Loading State = iota
	Loaded
	Failed
	Cancelled
)

// MaxConcurrentLoads limits how many tiles of one cache are fetched at once.
const MaxConcurrentLoads = 4

// NewCache returns an empty cache for the tile set. Load results are posted
// to results; failures are reported to notify without blocking, if notify is
// not nil.
func NewCache(set beatmap.TileSet, loader Loader, results chan<- func(), notify chan<- any) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		set:     set,
		loader:  loader,
		tiles:   make(map[int]*Tile),
		results: results,
		notify:  notify,
		sem:     make(chan struct{}, MaxConcurrentLoads),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Cache) TileSet() beatmap.TileSet { return c.set }

// Len returns the number of requested tiles, loaded or not.
func (c *Cache) Len() int { return len(c.tiles) }

// Tile returns the tile with index i if it has been requested.
func (c *Cache) Tile(i int) (*Tile, bool) {
	t, ok := c.tiles[i]
	return t, ok
}

// Indices returns the indices of all requested tiles in increasing order.
func (c *Cache) Indices() []int {
	ret := make([]int, 0, len(c.tiles))
	for i := range c.tiles {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

// Request starts loading tile i unless it is already in the cache. It returns
// the tile and whether a new load was started. Requests on a closed cache
// return a cancelled tile.
func (c *Cache) Request(i int) (*Tile, bool) {
	if t, ok := c.tiles[i]; ok {
		return t, false
	}
	t := &Tile{Index: i, URL: c.set.TileURL(i), done: make(chan struct{})}
	if c.closed {
		t.State = Cancelled
		close(t.done)
		return t, false
	}
	c.tiles[i] = t
	go c.load(t)
	return t, true
}

// Close cancels all pending loads. Tiles still loading become Cancelled and
// results arriving later are dropped.
func (c *Cache) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for _, t := range c.tiles {
		if t.State == Loading {
			t.State = Cancelled
			t.Err = context.Canceled
			close(t.done)
		}
	}
}

func (c *Cache) load(t *Tile) {
	select {
	case c.sem <- struct{}{}:
	case <-c.ctx.Done():
		return
	}
	img, err := c.loader.Load(c.ctx, t.URL)
	<-c.sem
	select {
	case c.results <- func() { c.apply(t, img, err) }:
	case <-c.ctx.Done():
	}
}

func (c *Cache) apply(t *Tile, img image.Image, err error) {
	if c.closed || t.State != Loading {
		return
	}
	if err != nil {
		t.State = Failed
		t.Err = err
		log.Printf("tile %d (%s) failed to load: %v", t.Index, t.URL, err)
		if c.notify != nil {
			select {
			case c.notify <- TileLoadFailed{Index: t.Index, URL: t.URL, Err: err}:
			default:
			}
		}
	} else {
		t.State = Loaded
		t.Image = img
	}
	close(t.done)
}

// Done returns a channel that is closed once the tile has loaded, failed or
// been cancelled.
func (t *Tile) Done() <-chan struct{} { return t.done }

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}
