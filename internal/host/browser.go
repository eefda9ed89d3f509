package host

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
	"github.com/BetterCallFirewall/techscope/internal/utils"
)

const maxTabRequests = 500

type tabRecord struct {
	tab      Tab
	snapshot *page.Snapshot
	requests []string
	live     *page.Page
}

// Browser Host в памяти. Страница берётся из прикреплённого снимка, а без
// него из Loader.
type Browser struct {
	mu     sync.RWMutex
	tabs   map[int]*tabRecord
	active int
	nextID int

	access *utils.AccessFilter
	loader Loader
}

func NewBrowser(access *utils.AccessFilter, loader Loader) *Browser {
	if access == nil {
		access = utils.NewAccessFilter(nil)
	}
	return &Browser{
		tabs:   make(map[int]*tabRecord),
		nextID: 1,
		access: access,
		loader: loader,
	}
}

// Open регистрирует вкладку. Первая открытая вкладка становится активной.
func (b *Browser) Open(url string, active bool) Tab {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.tabs[id] = &tabRecord{tab: Tab{ID: id, URL: url}}
	if active || b.active == 0 {
		b.activate(id)
	}
	return b.tabs[id].tab
}

// Activate делает вкладку активной.
func (b *Browser) Activate(tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[tabID]; !ok {
		return fmt.Errorf("activating tab %d: %w", tabID, ErrTabNotFound)
	}
	b.activate(tabID)
	return nil
}

func (b *Browser) activate(tabID int) {
	if prev, ok := b.tabs[b.active]; ok {
		prev.tab.Active = false
	}
	b.active = tabID
	b.tabs[tabID].tab.Active = true
}

// Close закрывает вкладку.
func (b *Browser) Close(tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[tabID]; !ok {
		return fmt.Errorf("closing tab %d: %w", tabID, ErrTabNotFound)
	}
	delete(b.tabs, tabID)
	if b.active == tabID {
		b.active = 0
	}
	return nil
}

// Attach задаёт снимок, из которого строится страница вкладки. URL снимка
// заодно меняет адрес вкладки.
func (b *Browser) Attach(tabID int, snap page.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.tabs[tabID]
	if !ok {
		return fmt.Errorf("attaching snapshot to tab %d: %w", tabID, ErrTabNotFound)
	}
	if snap.URL == "" {
		snap.URL = rec.tab.URL
	} else if snap.URL != rec.tab.URL {
		rec.tab.URL = snap.URL
		rec.requests = nil
	}
	rec.snapshot = &snap
	return nil
}

// Observe записывает запросы вкладки. Их видит страница, которая сейчас
// проверяется, и все страницы, собранные позже.
func (b *Browser) Observe(tabID int, urls []string) error {
	b.mu.Lock()
	rec, ok := b.tabs[tabID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("observing requests of tab %d: %w", tabID, ErrTabNotFound)
	}
	for _, u := range urls {
		if len(rec.requests) < maxTabRequests {
			rec.requests = append(rec.requests, u)
		}
	}
	live := rec.live
	b.mu.Unlock()

	if live != nil {
		for _, u := range urls {
			live.Network().Observe(u)
		}
	}
	return nil
}

// Tabs возвращает открытые вкладки по возрастанию id.
func (b *Browser) Tabs() []Tab {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Tab, 0, len(b.tabs))
	for _, rec := range b.tabs {
		out = append(out, rec.tab)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Browser) Tab(_ context.Context, tabID int) (Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.tabs[tabID]
	if !ok {
		return Tab{}, fmt.Errorf("tab %d: %w", tabID, ErrTabNotFound)
	}
	return rec.tab, nil
}

func (b *Browser) ActiveTab(_ context.Context) (Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.tabs[b.active]
	if !ok {
		return Tab{}, ErrNoActiveTab
	}
	return rec.tab, nil
}

func (b *Browser) CheckAccess(ctx context.Context, tabID int) error {
	tab, err := b.Tab(ctx, tabID)
	if err != nil {
		return err
	}
	if reason := b.access.DenyReason(tab.URL); reason != "" {
		return fmt.Errorf("%w: %s", ErrAccessDenied, reason)
	}
	return nil
}

// Inject собирает страницу вкладки и запускает на ней script. Паника
// скрипта возвращается как ошибка.
func (b *Browser) Inject(ctx context.Context, tabID int, script Script) (report *models.Report, err error) {
	if err := b.CheckAccess(ctx, tabID); err != nil {
		return nil, err
	}

	p, err := b.load(ctx, tabID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Script panicked in tab %d: %v", tabID, r)
			report, err = nil, fmt.Errorf("script failed in tab %d: %v", tabID, r)
		}
	}()
	return script(p), nil
}

func (b *Browser) load(ctx context.Context, tabID int) (*page.Page, error) {
	b.mu.RLock()
	rec, ok := b.tabs[tabID]
	if !ok {
		b.mu.RUnlock()
		return nil, fmt.Errorf("tab %d: %w", tabID, ErrTabNotFound)
	}
	url := rec.tab.URL
	var snap page.Snapshot
	attached := rec.snapshot != nil
	if attached {
		snap = *rec.snapshot
	}
	requests := append([]string{}, rec.requests...)
	b.mu.RUnlock()

	if !attached {
		if b.loader == nil {
			return nil, fmt.Errorf("tab %d has no snapshot and no loader is configured", tabID)
		}
		var err error
		snap, err = b.loader.Load(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("loading tab %d: %w", tabID, err)
		}
	}
	snap.Requests = append(append([]string{}, snap.Requests...), requests...)

	p, err := page.Load(snap)
	if err != nil {
		return nil, fmt.Errorf("building page for tab %d: %w", tabID, err)
	}

	b.mu.Lock()
	if rec, ok := b.tabs[tabID]; ok {
		rec.live = p
	}
	b.mu.Unlock()
	return p, nil
}
