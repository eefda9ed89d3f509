package models

// EventType имя события оркестратора на проводе
type EventType string

const (
	EventAnalysisStatus EventType = "ANALYSIS_STATUS"
	EventTechDetected   EventType = "TECH_DETECTED"
	EventAnalysisError  EventType = "ANALYSIS_ERROR"
)

// Event публикуется оркестратором и отображается подписанным UI.
// Report заполнен только для TECH_DETECTED, Error только для ANALYSIS_ERROR.
type Event struct {
	Type        EventType `json:"type"`
	TabID       int       `json:"tabId"`
	RunID       uint64    `json:"runId"`
	IsAnalyzing bool      `json:"isAnalyzing"`
	Report      *Report   `json:"data,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// TabState состояние анализа одной вкладки (только чтение)
type TabState struct {
	Report      *Report `json:"data"`
	IsAnalyzing bool    `json:"isAnalyzing"`
}

// StartDetectionRequest запрос на анализ вкладки
type StartDetectionRequest struct {
	TabID int `json:"tabId"`
}

// Ack ответ на StartDetectionRequest
type Ack struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TechData ответ на GetTechnologies для активной вкладки
type TechData struct {
	Type        string  `json:"type"`
	Report      *Report `json:"data"`
	IsAnalyzing bool    `json:"isAnalyzing"`
	Error       string  `json:"error,omitempty"`
}

// TechDataType постоянное значение поля Type в TechData
const TechDataType = "TECH_DATA"

// EventsTopic топик брокера для событий оркестратора
const EventsTopic = "events"
