package storage

import (
	"sort"
	"sync"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

// tabEntry хранит состояние анализа одной вкладки
type tabEntry struct {
	report      *models.Report
	isAnalyzing bool
	runID       uint64
}

// MemoryStorage хранит состояние анализа вкладок в памяти. Каждая запись
// привязана к запуску и отбрасывается, если запуск уже не текущий.
type MemoryStorage struct {
	tabs map[int]*tabEntry
	mu   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tabs: make(map[int]*tabEntry),
	}
}

// Begin делает runID текущим запуском вкладки и ставит флаг анализа.
// Прошлый отчёт живёт до ClearReport.
func (s *MemoryStorage) Begin(tabID int, runID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tabs[tabID]
	if !ok {
		entry = &tabEntry{}
		s.tabs[tabID] = entry
	}
	entry.runID = runID
	entry.isAnalyzing = true
}

// ClearReport удаляет отчёт вкладки, если runID текущий.
func (s *MemoryStorage) ClearReport(tabID int, runID uint64) bool {
	return s.update(tabID, runID, func(e *tabEntry) { e.report = nil })
}

// StoreReport заменяет отчёт вкладки, если runID текущий.
func (s *MemoryStorage) StoreReport(tabID int, runID uint64, report *models.Report, analyzing bool) bool {
	return s.update(tabID, runID, func(e *tabEntry) {
		e.report = report
		e.isAnalyzing = analyzing
	})
}

// Finish снимает флаг анализа, если runID текущий.
func (s *MemoryStorage) Finish(tabID int, runID uint64) bool {
	return s.update(tabID, runID, func(e *tabEntry) { e.isAnalyzing = false })
}

func (s *MemoryStorage) update(tabID int, runID uint64, fn func(*tabEntry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tabs[tabID]
	if !ok || entry.runID != runID {
		return false
	}
	fn(entry)
	return true
}

// IsCurrent проверяет, что runID последний запуск для вкладки.
func (s *MemoryStorage) IsCurrent(tabID int, runID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tabs[tabID]
	return ok && entry.runID == runID
}

// Report возвращает текущий отчёт вкладки или nil.
func (s *MemoryStorage) Report(tabID int, runID uint64) (*models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tabs[tabID]
	if !ok || entry.runID != runID {
		return nil, false
	}
	return entry.report, true
}

// GetState возвращает последний отчёт и флаг анализа. Для вкладки без
// анализа возвращается нулевое состояние.
func (s *MemoryStorage) GetState(tabID int) models.TabState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tabs[tabID]
	if !ok {
		return models.TabState{}
	}
	return models.TabState{Report: entry.report, IsAnalyzing: entry.isAnalyzing}
}

// Delete забывает вкладку, записи её текущего запуска отбрасываются.
func (s *MemoryStorage) Delete(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabID)
}

// Tabs возвращает отсортированные id вкладок с состоянием.
func (s *MemoryStorage) Tabs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.tabs))
	for id := range s.tabs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
