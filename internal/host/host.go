// Package host заменяет браузер: хранит вкладки и запускает скрипты
// детекции на их страницах.
package host

import (
	"context"
	"errors"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

var (
	ErrTabNotFound  = errors.New("tab not found")
	ErrNoActiveTab  = errors.New("no active tab")
	ErrAccessDenied = errors.New("script injection not allowed")
)

// Tab данные о вкладке браузера
type Tab struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Script выполняется в контексте страницы и возвращает результат
type Script func(*page.Page) *models.Report

// Host часть браузера, нужная оркестратору
type Host interface {
	// CheckAccess возвращает ошибку с ErrAccessDenied, если скрипты во
	// вкладке запускать нельзя
	CheckAccess(ctx context.Context, tabID int) error
	Inject(ctx context.Context, tabID int, script Script) (*models.Report, error)
	Tab(ctx context.Context, tabID int) (Tab, error)
	ActiveTab(ctx context.Context) (Tab, error)
}
