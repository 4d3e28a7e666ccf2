package warmup

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// roomCache maps room ids to the latest known record. Readers load an
// immutable snapshot without locking; writers are serialized by mu and
// publish a new snapshot, so a reader never sees a half-written room.
type roomCache struct {
	mu   sync.Mutex
	snap atomic.Pointer[map[int]Room]
}

func (c *roomCache) load() map[int]Room {
	if m := c.snap.Load(); m != nil {
		return *m
	}
	return nil
}

// get returns ok == false for unknown rooms and for rooms cleared by a
// command that has not been followed by a refresh yet.
func (c *roomCache) get(id int) (Room, bool) {
	room, ok := c.load()[id]
	return room, ok
}

// all returns the cached rooms ordered by id.
func (c *roomCache) all() []Room {
	m := c.load()
	rooms := make([]Room, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		rooms = append(rooms, m[id])
	}
	return rooms
}

// store replaces the entry of every given room wholesale.
func (c *roomCache) store(rooms []Room) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := maps.Clone(c.load())
	if next == nil {
		next = make(map[int]Room, len(rooms))
	}
	for _, room := range rooms {
		next[room.RoomID] = room
	}
	c.snap.Store(&next)
}

func (c *roomCache) clear(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.load()
	if _, ok := current[id]; !ok {
		return
	}
	next := maps.Clone(current)
	delete(next, id)
	c.snap.Store(&next)
}
