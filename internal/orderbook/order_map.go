package orderbook

// slot key: 0 = empty, ^0 = tombstone, otherwise an order id
type slot struct {
	key   uint64
	value uint32
	_     uint32
}

// OrderMap is an open-addressing order_id -> pool index table.
// Linear probing; erase leaves a tombstone that the next insert walking
// over it reclaims, so tombstones never pile up along a probe path.
// Every walk is bounded by the table size.
type OrderMap struct {
	slots      []slot
	mask       uint64
	live       int
	tombstones int
}

func NewOrderMap(capacity int) (*OrderMap, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}
	return &OrderMap{
		slots: make([]slot, capacity),
		mask:  uint64(capacity - 1),
	}, nil
}

// splitmix64 finalizer
func hash(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Insert adds key -> value, or updates the value if key is already present.
// key must not be 0 or ^0.
func (m *OrderMap) Insert(key uint64, value uint32) {
	idx := hash(key) & m.mask
	reuse := -1
	for probes := 0; probes < len(m.slots); probes++ {
		k := m.slots[idx].key
		if k == emptyKey {
			break
		}
		if k == tombstoneKey {
			if reuse < 0 {
				reuse = int(idx)
			}
		} else if k == key {
			m.slots[idx].value = value
			return
		}
		idx = (idx + 1) & m.mask
	}

	switch {
	case reuse >= 0:
		idx = uint64(reuse)
		m.tombstones--
	case m.slots[idx].key != emptyKey:
		// full cycle without an empty or reusable slot
		panic(ErrMapFull)
	}
	m.slots[idx] = slot{key: key, value: value}
	m.live++
}

// Find returns the value for key. Tombstones are skipped, never terminal.
func (m *OrderMap) Find(key uint64) (uint32, bool) {
	if key == emptyKey || key == tombstoneKey {
		return 0, false
	}
	idx := hash(key) & m.mask
	for probes := 0; probes < len(m.slots); probes++ {
		s := &m.slots[idx]
		if s.key == key {
			return s.value, true
		}
		if s.key == emptyKey {
			return 0, false
		}
		idx = (idx + 1) & m.mask
	}
	return 0, false
}

// Erase turns key's slot into a tombstone. Missing keys are a no-op.
func (m *OrderMap) Erase(key uint64) {
	if key == emptyKey || key == tombstoneKey {
		return
	}
	idx := hash(key) & m.mask
	for probes := 0; probes < len(m.slots); probes++ {
		s := &m.slots[idx]
		if s.key == key {
			s.key = tombstoneKey
			m.live--
			m.tombstones++
			return
		}
		if s.key == emptyKey {
			return
		}
		idx = (idx + 1) & m.mask
	}
}

// ProbeLength counts the slots a lookup of key inspects, including the
// terminating one.
func (m *OrderMap) ProbeLength(key uint64) int {
	idx := hash(key) & m.mask
	n := 0
	for n < len(m.slots) {
		n++
		k := m.slots[idx].key
		if k == key || k == emptyKey {
			break
		}
		idx = (idx + 1) & m.mask
	}
	return n
}

func (m *OrderMap) Len() int        { return m.live }
func (m *OrderMap) Tombstones() int { return m.tombstones }
func (m *OrderMap) Cap() int        { return len(m.slots) }

// Clear empties the table without reallocating.
func (m *OrderMap) Clear() {
	clear(m.slots)
	m.live = 0
	m.tombstones = 0
}
