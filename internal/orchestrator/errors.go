package orchestrator

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoResult         = errors.New("detector returned no result")
)

// PermissionError скрипты во вкладке запрещены. Нужно запросить доступ у
// пользователя, а не повторять.
type PermissionError struct {
	TabID int
	Err   error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tab %d: %v", e.TabID, ErrPermissionDenied)
	}
	return fmt.Sprintf("tab %d: %v: %v", e.TabID, ErrPermissionDenied, e.Err)
}

func (e *PermissionError) Unwrap() []error { return causes(ErrPermissionDenied, e.Err) }

// NoResultError инъекция не дала результата. Повтора нет.
type NoResultError struct {
	TabID int
	Err   error
}

func (e *NoResultError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tab %d: %v", e.TabID, ErrNoResult)
	}
	return fmt.Sprintf("tab %d: %v: %v", e.TabID, ErrNoResult, e.Err)
}

func (e *NoResultError) Unwrap() []error { return causes(ErrNoResult, e.Err) }

func causes(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
