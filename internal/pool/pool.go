package pool

import (
	"sync"

	"github.com/annel0/blockworld/internal/logging"
)

// Item объект, который может жить в пуле
type Item interface {
	// ResetItem вызывается перед выдачей объекта из пула
	ResetItem()
	// Returned вызывается при возврате объекта в пул
	Returned()
}

// Pool пул фиксированной ёмкости. Объекты создаются один раз при создании пула,
// не удаляются и не добавляются; каждый находится либо в активной, либо в свободной части.
type Pool[T interface {
	comparable
	Item
}] struct {
	name      string
	items     []T
	slots     map[T]int
	active    []bool
	releasing []bool // выполняется хук Returned, слот ещё активен
	free      []int  // стек свободных слотов
	mu        sync.Mutex
	log       *logging.Logger
}

// New создаёт пул ёмкостью capacity; factory вызывается для каждого слота
func New[T interface {
	comparable
	Item
}](name string, capacity int, factory func(slot int) T) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}

	p := &Pool[T]{
		name:      name,
		items:     make([]T, capacity),
		slots:     make(map[T]int, capacity),
		active:    make([]bool, capacity),
		releasing: make([]bool, capacity),
		free:      make([]int, 0, capacity),
		log:       logging.GetPoolLogger(),
	}

	// Слоты кладутся в стек в обратном порядке, чтобы первым выдавался слот 0
	for i := 0; i < capacity; i++ {
		item := factory(i)
		p.items[i] = item
		p.slots[item] = i
	}
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

// Get выдаёт свободный объект. false означает, что пул исчерпан; пул никогда не растёт и не блокирует.
func (p *Pool[T]) Get() (T, bool) {
	p.mu.Lock()
	if len(p.free) == 0 {
		p.mu.Unlock()
		var zero T
		return zero, false
	}

	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.active[slot] = true
	item := p.items[slot]
	p.mu.Unlock()

	item.ResetItem()
	return item, true
}

// Return возвращает объект в пул. false, если объект не активен или не из этого пула.
// Хук Returned выполняется до попадания объекта в свободную часть и может обращаться к пулу.
func (p *Pool[T]) Return(item T) bool {
	p.mu.Lock()
	slot, ok := p.slots[item]
	if !ok || !p.active[slot] || p.releasing[slot] {
		p.mu.Unlock()
		p.log.Warn("Пул %s: попытка вернуть неактивный объект", p.name)
		return false
	}
	p.releasing[slot] = true
	p.mu.Unlock()

	item.Returned()

	p.mu.Lock()
	p.releasing[slot] = false
	p.active[slot] = false
	p.free = append(p.free, slot)
	p.mu.Unlock()
	return true
}

// IsActive сообщает, выдан ли объект из пула
func (p *Pool[T]) IsActive(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[item]
	return ok && p.active[slot]
}

// Active возвращает выданные объекты в порядке слотов
func (p *Pool[T]) Active() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]T, 0, len(p.items)-len(p.free))
	for i, item := range p.items {
		if p.active[i] {
			out = append(out, item)
		}
	}
	return out
}

// Name возвращает имя пула
func (p *Pool[T]) Name() string {
	return p.name
}

// Capacity возвращает ёмкость пула
func (p *Pool[T]) Capacity() int {
	return len(p.items)
}

// ActiveCount возвращает количество выданных объектов
func (p *Pool[T]) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) - len(p.free)
}

// InactiveCount возвращает количество свободных объектов
func (p *Pool[T]) InactiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
