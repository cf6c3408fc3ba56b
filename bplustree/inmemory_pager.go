package bplus

import (
	"fmt"
	"sync"
)

// InMemoryPager keeps pages in a map. Used by tests and by the seed/bench
// tools when durability is not needed.
type InMemoryPager struct {
	pages    map[int64][]byte
	nextPage int64
	mu       sync.RWMutex
	closed   bool
}

func NewInMemoryPager() *InMemoryPager {
	return &InMemoryPager{
		pages: make(map[int64][]byte),
		// page 0 is reserved for the root pointer, allocation starts at 1
		nextPage: 1,
	}
}

func (p *InMemoryPager) ReadPage(pageID int64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, fmt.Errorf("pager is closed")
	}

	data, ok := p.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("page %d not found", pageID)
	}

	// Return a copy so the caller cannot modify stored pages without
	// going through WritePage.
	out := make([]byte, PageSize)
	copy(out, data)
	return out, nil
}

func (p *InMemoryPager) WritePage(pageID int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("pager is closed")
	}

	if len(data) != PageSize {
		return fmt.Errorf("data size %d does not match page size %d", len(data), PageSize)
	}

	dest := make([]byte, PageSize)
	copy(dest, data)
	p.pages[pageID] = dest

	return nil
}

func (p *InMemoryPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return InvalidPageID, fmt.Errorf("pager is closed")
	}

	id := p.nextPage
	p.nextPage++

	p.pages[id] = make([]byte, PageSize)
	return id, nil
}

func (p *InMemoryPager) DeallocatePage(pageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("pager is closed")
	}

	delete(p.pages, pageID)
	return nil
}

func (p *InMemoryPager) Sync() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("pager is closed")
	}
	return nil
}

func (p *InMemoryPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	// Helps catch use-after-close bugs.
	p.pages = nil
	p.closed = true
	return nil
}

func (p *InMemoryPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}
