// Package detector прогоняет набор сигнатур по странице и собирает отчёт.
// Детекция синхронная и не ходит в сеть.
package detector

import (
	"log"
	"regexp"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
	"github.com/BetterCallFirewall/techscope/internal/signatures"
)

const DefaultSniffWindow = 3 * time.Second

// Engine после сборки безопасен для конкурентного использования.
type Engine struct {
	rules         signatures.Set
	sniffWindow   time.Duration
	now           func() time.Time
	fingerprinter Fingerprinter
	onRuleError   func(*RuleEvaluationError)
	versionTokens map[string]*regexp.Regexp
}

type Option func(*Engine)

// WithSniffWindow задаёт, сколько живёт перехват запросов к API.
func WithSniffWindow(d time.Duration) Option {
	return func(e *Engine) { e.sniffWindow = d }
}

// WithClock подменяет time.Now для оценки возраста сайта.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFingerprinter добавляет строку "Fingerprints" в serverTech.
func WithFingerprinter(f Fingerprinter) Option {
	return func(e *Engine) { e.fingerprinter = f }
}

// WithRuleErrorHandler вызывается на каждую перехваченную ошибку проверки.
func WithRuleErrorHandler(fn func(*RuleEvaluationError)) Option {
	return func(e *Engine) { e.onRuleError = fn }
}

func New(rules signatures.Set, opts ...Option) *Engine {
	e := &Engine{
		rules:       rules,
		sniffWindow: DefaultSniffWindow,
		now:         time.Now,
		onRuleError: func(err *RuleEvaluationError) {
			log.Printf("⚠️ Detector check failed: %v", err)
		},
		versionTokens: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, r := range rules.All() {
		if tok := r.Version.ScriptToken; tok != "" {
			if _, ok := e.versionTokens[tok]; !ok {
				e.versionTokens[tok] = regexp.MustCompile(regexp.QuoteMeta(tok) + `@(\d+\.\d+\.\d+)`)
			}
		}
	}
	return e
}

// Detect проверяет страницу по всем категориям. Упавшая проверка не
// прерывает остальные, её категория или строка остаётся пустой.
func (e *Engine) Detect(p *page.Page) *models.Report {
	report := models.NewReport()
	src := collectSources(p)

	e.section(report, models.CategoryFrameworks, func() []models.Finding {
		return e.identity(p, src, e.rules.Frameworks)
	})
	e.section(report, models.CategoryLibraries, func() []models.Finding {
		return e.identity(p, src, e.rules.Libraries)
	})
	e.section(report, models.CategoryBuildTools, func() []models.Finding {
		return e.identity(p, src, e.rules.BuildTools)
	})
	e.section(report, models.CategoryServerTech, func() []models.Finding { return e.serverTech(p) })
	e.section(report, models.CategoryFullStack, func() []models.Finding { return fullStack(p) })
	e.section(report, models.CategoryMarkup, func() []models.Finding { return markup(p) })
	e.section(report, models.CategoryEncoding, func() []models.Finding { return encoding(p) })
	e.section(report, models.CategoryImages, func() []models.Finding { return images(p) })
	e.section(report, models.CategoryServerInfo, func() []models.Finding { return e.serverInfo(p, src) })
	e.section(report, models.CategoryEmailServer, func() []models.Finding { return emailServer(p) })
	e.section(report, models.CategoryDNSInfo, func() []models.Finding { return dnsInfo(p) })
	e.section(report, models.CategoryWhois, func() []models.Finding { return whoisInfo(p) })
	e.section(report, models.CategoryEmails, func() []models.Finding { return emails(p) })
	e.section(report, models.CategoryForms, func() []models.Finding { return forms(p) })
	e.section(report, models.CategoryAPIs, func() []models.Finding { return e.apis(p, src) })
	e.section(report, models.CategoryDomainExpiration, func() []models.Finding { return e.domainExpiration(p) })

	e.section(report, models.CategoryAdNetworks, func() []models.Finding {
		return e.summary(p, src, e.rules.AdNetworks, "Ad Networks", "📣")
	})
	e.section(report, models.CategoryTagManagers, func() []models.Finding {
		return e.summary(p, src, e.rules.TagManagers, "Tag Managers", "🏷️")
	})
	e.section(report, models.CategoryTrackers, func() []models.Finding {
		return e.summary(p, src, e.rules.Trackers, "Trackers", "📊")
	})
	e.section(report, models.CategoryAnalytics, func() []models.Finding {
		return e.tally(p, src, e.rules.Analytics, "Analytics Tools", "📈")
	})
	e.section(report, models.CategoryPaymentGateways, func() []models.Finding {
		return e.summary(p, src, e.rules.PaymentGateways, "Payment Gateways", "💳")
	})
	e.section(report, models.CategorySocialMediaLinks, func() []models.Finding {
		return e.summary(p, src, e.rules.SocialPlatforms, "Social Media Links", "📱")
	})

	return report
}

func (e *Engine) section(report *models.Report, c models.Category, fn func() []models.Finding) {
	var findings []models.Finding
	e.guard(c, "", func() { findings = fn() })
	report.Set(c, findings)
}

// guard запускает fn и превращает панику в RuleEvaluationError. Возвращает
// true, если fn отработала.
func (e *Engine) guard(c models.Category, rule string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if e.onRuleError != nil {
				e.onRuleError(&RuleEvaluationError{Category: c, Rule: rule, Cause: r})
			}
		}
	}()
	fn()
	return true
}
