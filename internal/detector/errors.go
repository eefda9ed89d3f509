package detector

import (
	"fmt"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

// RuleEvaluationError описывает упавшую проверку. Движок её перехватывает,
// логирует и считает проверку несработавшей.
type RuleEvaluationError struct {
	Category models.Category
	Rule     string
	Cause    any
}

func (e *RuleEvaluationError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("evaluating %s: %v", e.Category, e.Cause)
	}
	return fmt.Sprintf("evaluating %s/%s: %v", e.Category, e.Rule, e.Cause)
}

// Unwrap отдаёт перехваченное значение, если это ошибка.
func (e *RuleEvaluationError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
