package tmx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMapManagerNotLoaded = errors.New("tmx: map not loaded")
	ErrMapNotFound         = errors.New("tmx: map not found")
	ErrNoLoader            = errors.New("tmx: no loader for file extension")
)

// AssetID identifies a map held by a MapManager. The zero value is never
// assigned.
type AssetID uint64

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "not loaded"
}

type AssetEventKind int

const (
	AssetAdded AssetEventKind = iota
	AssetModified
	AssetRemoved
)

func (k AssetEventKind) String() string {
	switch k {
	case AssetAdded:
		return "added"
	case AssetModified:
		return "modified"
	case AssetRemoved:
		return "removed"
	}
	return fmt.Sprintf("AssetEventKind(%d)", int(k))
}

type AssetEvent struct {
	Kind AssetEventKind
	ID   AssetID
}

type assetEntry struct {
	path       string
	state      LoadState
	asset      *Asset
	err        error
	cancel     context.CancelFunc
	generation int
}

// MapManager is an asset cache for maps read from a file system. Loads run
// in their own goroutine; a map becomes visible through Get and an
// AssetAdded or AssetModified event only once it is fully decoded.
type MapManager struct {
	fsys   fs.FS
	Logger zerolog.Logger

	mu      sync.Mutex
	loaders map[string]Loader
	nextID  AssetID
	ids     map[string]AssetID
	entries map[AssetID]*assetEntry
	events  []AssetEvent
	wg      sync.WaitGroup
}

func NewMapManager(fsys fs.FS) *MapManager {
	return &MapManager{
		fsys:    fsys,
		Logger:  log.Logger,
		loaders: make(map[string]Loader),
		ids:     make(map[string]AssetID),
		entries: make(map[AssetID]*assetEntry),
	}
}

// RegisterLoader makes l responsible for every extension it reports.
func (mm *MapManager) RegisterLoader(l Loader) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for _, ext := range l.Extensions() {
		mm.loaders[strings.ToLower(ext)] = l
	}
}

// Load starts loading name unless it is already known and returns its id.
func (mm *MapManager) Load(ctx context.Context, name string) AssetID {
	name = path.Clean(name)

	mm.mu.Lock()
	defer mm.mu.Unlock()
	if id, ok := mm.ids[name]; ok {
		return id
	}
	mm.nextID++
	id := mm.nextID
	mm.ids[name] = id
	mm.entries[id] = &assetEntry{path: name}
	mm.startLocked(ctx, id)
	return id
}

// Reload decodes name again. Once done, an AssetModified event is emitted
// if a previous revision was loaded, AssetAdded otherwise.
func (mm *MapManager) Reload(ctx context.Context, name string) AssetID {
	name = path.Clean(name)

	mm.mu.Lock()
	id, ok := mm.ids[name]
	if ok {
		mm.startLocked(ctx, id)
	}
	mm.mu.Unlock()

	if !ok {
		return mm.Load(ctx, name)
	}
	return id
}

// Insert stores an already decoded asset under name, replacing any previous
// revision, and emits the matching event.
func (mm *MapManager) Insert(name string, a *Asset) AssetID {
	name = path.Clean(name)

	mm.mu.Lock()
	defer mm.mu.Unlock()
	id, ok := mm.ids[name]
	if !ok {
		mm.nextID++
		id = mm.nextID
		mm.ids[name] = id
		mm.entries[id] = &assetEntry{path: name}
	}
	e := mm.entries[id]
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
	mm.storeLocked(id, e, a)
	return id
}

// Remove drops the asset, cancelling an in-flight load.
func (mm *MapManager) Remove(id AssetID) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	e, ok := mm.entries[id]
	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	delete(mm.entries, id)
	delete(mm.ids, e.path)
	mm.events = append(mm.events, AssetEvent{Kind: AssetRemoved, ID: id})
	mm.Logger.Info().Str("path", e.path).Msg("map removed")
}

func (mm *MapManager) Get(id AssetID) (*Asset, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	e, ok := mm.entries[id]
	if !ok || e.asset == nil {
		return nil, false
	}
	return e.asset, true
}

func (mm *MapManager) State(id AssetID) LoadState {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if e, ok := mm.entries[id]; ok {
		return e.state
	}
	return NotLoaded
}

// Err returns the error of the last failed load of id.
func (mm *MapManager) Err(id AssetID) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if e, ok := mm.entries[id]; ok {
		return e.err
	}
	return nil
}

// GetMapByName returns a loaded map by path or by map class.
func (mm *MapManager) GetMapByName(name string) (*Map, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if id, ok := mm.ids[path.Clean(name)]; ok {
		e := mm.entries[id]
		if e.asset == nil {
			return nil, ErrMapManagerNotLoaded
		}
		return e.asset.Map, nil
	}
	for _, e := range mm.entries {
		if e.asset != nil && e.asset.Map.Class == name {
			return e.asset.Map, nil
		}
	}
	return nil, ErrMapNotFound
}

// DrainEvents returns the events emitted since the previous call, oldest
// first.
func (mm *MapManager) DrainEvents() []AssetEvent {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	events := mm.events
	mm.events = nil
	return events
}

// Wait blocks until every started load has finished.
func (mm *MapManager) Wait() {
	mm.wg.Wait()
}

// LoadDir loads every .tmx file below dir and waits for them. The first
// load error is returned; the other maps stay loaded.
func (mm *MapManager) LoadDir(ctx context.Context, dir string) ([]AssetID, error) {
	tmxFiles, err := findTMXFiles(mm.fsys, dir)
	if err != nil {
		return nil, err
	}

	ids := make([]AssetID, len(tmxFiles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range tmxFiles {
		g.Go(func() error {
			a, err := mm.loadAsset(ctx, name)
			if err != nil {
				mm.mu.Lock()
				id := mm.ensureLocked(name)
				e := mm.entries[id]
				e.state, e.err = Failed, err
				mm.mu.Unlock()
				ids[i] = id
				return err
			}
			ids[i] = mm.Insert(name, a)
			return nil
		})
	}
	return ids, g.Wait()
}

func (mm *MapManager) ensureLocked(name string) AssetID {
	if id, ok := mm.ids[name]; ok {
		return id
	}
	mm.nextID++
	id := mm.nextID
	mm.ids[name] = id
	mm.entries[id] = &assetEntry{path: name}
	return id
}

func (mm *MapManager) startLocked(ctx context.Context, id AssetID) {
	e := mm.entries[id]
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.generation++
	if e.asset == nil {
		e.state = Loading
	}
	generation, name := e.generation, e.path

	mm.wg.Add(1)
	go func() {
		defer mm.wg.Done()
		defer cancel()
		a, err := mm.loadAsset(ctx, name)
		mm.finish(id, generation, a, err)
	}()
}

func (mm *MapManager) finish(id AssetID, generation int, a *Asset, err error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	e, ok := mm.entries[id]
	if !ok || e.generation != generation {
		// Removed or superseded by a newer load.
		return
	}
	e.cancel = nil
	if err != nil {
		e.err = err
		if e.asset == nil {
			e.state = Failed
		}
		mm.Logger.Error().Err(err).Str("path", e.path).Msg("map failed to load")
		return
	}
	mm.storeLocked(id, e, a)
}

func (mm *MapManager) storeLocked(id AssetID, e *assetEntry, a *Asset) {
	kind := AssetAdded
	if e.asset != nil {
		kind = AssetModified
	}
	e.asset, e.state, e.err = a, Loaded, nil
	mm.events = append(mm.events, AssetEvent{Kind: kind, ID: id})
}

func (mm *MapManager) loadAsset(ctx context.Context, name string) (*Asset, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))

	mm.mu.Lock()
	l, ok := mm.loaders[ext]
	mm.mu.Unlock()
	if !ok {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("%w: %q", ErrNoLoader, ext)}
	}

	data, err := fs.ReadFile(mm.fsys, name)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	return l.Load(ctx, data, name, FSReader{FS: mm.fsys})
}

func findTMXFiles(fsys fs.FS, dir string) ([]string, error) {
	var tmxFiles []string

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".tmx" {
			tmxFiles = append(tmxFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(tmxFiles)
	return tmxFiles, nil
}
