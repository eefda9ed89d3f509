// Package orchestrator проводит анализ вкладок: запускает детектор, публикует
// частичный отчёт, добавляет WHOIS и публикует итоговый.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/host"
	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/storage"
	"github.com/BetterCallFirewall/techscope/internal/utils"
	"github.com/BetterCallFirewall/techscope/internal/whois"
)

const DefaultWhoisTimeout = 10 * time.Second

// Fetcher получает регистрационные данные домена
type Fetcher interface {
	Fetch(ctx context.Context, domain string) ([]models.Finding, error)
}

// Publisher отправляет события без ожидания, false значит никто не принял
type Publisher interface {
	Publish(topic string, event models.Event) bool
}

// Config параметры оркестратора
type Config struct {
	WhoisTimeout time.Duration
}

// Orchestrator владеет состоянием анализа вкладок и единственный пишет в него
type Orchestrator struct {
	host      host.Host
	detect    host.Script
	fetcher   Fetcher
	publisher Publisher
	store     *storage.MemoryStorage
	domains   *utils.DomainResolver

	whoisTimeout time.Duration
	runs         atomic.Uint64
}

// New собирает оркестратор. С nil fetcher WHOIS не подмешивается.
func New(h host.Host, detect host.Script, fetcher Fetcher, publisher Publisher, domains *utils.DomainResolver, config Config) *Orchestrator {
	if config.WhoisTimeout <= 0 {
		config.WhoisTimeout = DefaultWhoisTimeout
	}
	if domains == nil {
		domains, _ = utils.NewDomainResolver(utils.DomainModeWWW)
	}
	return &Orchestrator{
		host:         h,
		detect:       detect,
		fetcher:      fetcher,
		publisher:    publisher,
		store:        storage.NewMemoryStorage(),
		domains:      domains,
		whoisTimeout: config.WhoisTimeout,
	}
}

// Start анализирует вкладку и возвращается после публикации итогового отчёта.
// Более новый Start для той же вкладки вытесняет текущий, и его записи и
// события дальше отбрасываются.
func (o *Orchestrator) Start(ctx context.Context, tabID int) error {
	if _, err := o.host.Tab(ctx, tabID); err != nil {
		log.Printf("⚠️ Tab %d is not open, analysis skipped", tabID)
		return fmt.Errorf("starting analysis of tab %d: %w", tabID, err)
	}

	runID := o.runs.Add(1)
	o.store.Begin(tabID, runID)
	o.publish(models.Event{Type: models.EventAnalysisStatus, TabID: tabID, RunID: runID, IsAnalyzing: true})

	log.Printf("🔍 Analyzing tab %d (run %d)", tabID, runID)

	if err := o.host.CheckAccess(ctx, tabID); err != nil {
		return o.fail(tabID, runID, o.classify(tabID, err))
	}

	o.store.ClearReport(tabID, runID)

	report, err := o.host.Inject(ctx, tabID, o.detect)
	if err != nil && errors.Is(err, host.ErrAccessDenied) {
		return o.fail(tabID, runID, &PermissionError{TabID: tabID, Err: err})
	}
	if err != nil || report == nil {
		return o.fail(tabID, runID, &NoResultError{TabID: tabID, Err: err})
	}

	if !o.commit(tabID, runID, report, true) {
		return nil
	}
	log.Printf("📦 Partial report for tab %d: %d findings", tabID, report.Len())

	final := o.supplement(ctx, tabID, report)
	if !o.commit(tabID, runID, final, false) {
		return nil
	}

	log.Printf("✅ Analysis of tab %d finished: %d findings", tabID, final.Len())
	return nil
}

func (o *Orchestrator) classify(tabID int, err error) error {
	if errors.Is(err, host.ErrAccessDenied) {
		return &PermissionError{TabID: tabID, Err: err}
	}
	return fmt.Errorf("checking access to tab %d: %w", tabID, err)
}

// commit сохраняет и публикует отчёт запуска. Возвращает false, если запуск
// уже вытеснен.
func (o *Orchestrator) commit(tabID int, runID uint64, report *models.Report, analyzing bool) bool {
	if !o.store.StoreReport(tabID, runID, report, analyzing) {
		log.Printf("⚠️ Run %d of tab %d was superseded, dropping its report", runID, tabID)
		return false
	}
	o.publish(models.Event{
		Type:        models.EventTechDetected,
		TabID:       tabID,
		RunID:       runID,
		IsAnalyzing: analyzing,
		Report:      report,
	})
	return true
}

func (o *Orchestrator) fail(tabID int, runID uint64, err error) error {
	log.Printf("❌ Analysis of tab %d failed: %v", tabID, err)
	if o.store.Finish(tabID, runID) {
		o.publish(models.Event{
			Type:  models.EventAnalysisError,
			TabID: tabID,
			RunID: runID,
			Error: err.Error(),
		})
	}
	return err
}

// supplement добавляет WHOIS находки в копию отчёта. При любой ошибке
// запроса отчёт остаётся прежним.
func (o *Orchestrator) supplement(ctx context.Context, tabID int, report *models.Report) *models.Report {
	if o.fetcher == nil {
		return report
	}

	tab, err := o.host.Tab(ctx, tabID)
	if err != nil {
		log.Printf("⚠️ Tab %d vanished before WHOIS lookup: %v", tabID, err)
		return report
	}
	domain, err := o.domains.Registrable(tab.URL)
	if err != nil {
		log.Printf("⚠️ No registrable domain for %q: %v", tab.URL, err)
		return report
	}

	lookupCtx, cancel := context.WithTimeout(ctx, o.whoisTimeout)
	defer cancel()

	findings, err := o.fetcher.Fetch(lookupCtx, domain)
	if err != nil {
		log.Printf("⚠️ WHOIS lookup for %s failed: %v", domain, err)
		return report
	}
	if len(findings) == 0 {
		return report
	}

	expiration, other := whois.Split(findings)
	merged := report.Clone()
	merged.Append(models.CategoryDomainExpiration, expiration...)
	merged.Append(models.CategoryWhois, other...)
	return merged
}

func (o *Orchestrator) publish(event models.Event) {
	if o.publisher == nil {
		return
	}
	if !o.publisher.Publish(models.EventsTopic, event) {
		log.Printf("⚠️ Event %s for tab %d dropped, no listener", event.Type, event.TabID)
	}
}

// Technologies возвращает состояние активной вкладки без запуска анализа.
func (o *Orchestrator) Technologies(ctx context.Context) models.TechData {
	tab, err := o.host.ActiveTab(ctx)
	if err != nil {
		return models.TechData{Type: models.TechDataType, Error: err.Error()}
	}
	state := o.store.GetState(tab.ID)
	return models.TechData{
		Type:        models.TechDataType,
		Report:      state.Report,
		IsAnalyzing: state.IsAnalyzing,
	}
}

// State возвращает последний отчёт вкладки и флаг анализа.
func (o *Orchestrator) State(tabID int) models.TabState {
	return o.store.GetState(tabID)
}

// Forget удаляет состояние закрытой вкладки, её текущий запуск перестаёт публиковать.
func (o *Orchestrator) Forget(tabID int) {
	o.store.Delete(tabID)
}

// Tabs возвращает вкладки с состоянием анализа.
func (o *Orchestrator) Tabs() []int {
	return o.store.Tabs()
}

// Ack превращает результат Start в ответ для UI.
func Ack(err error) models.Ack {
	if err != nil {
		return models.Ack{Error: err.Error()}
	}
	return models.Ack{Success: true}
}
