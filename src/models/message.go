package models

import "time"

type MessageCategory string

const (
	CategoryInfo          MessageCategory = "info"
	CategorySelection     MessageCategory = "selection"
	CategoryCommunication MessageCategory = "communication"
	CategorySuccess       MessageCategory = "success"
	CategoryError         MessageCategory = "error"
	CategoryDiagnostic    MessageCategory = "diagnostic"
)

// MMessage is one entry of the communication timeline. Seq is authoritative for ordering.
type MMessage struct {
	Seq       int             `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Category  MessageCategory `json:"type"`
	Content   string          `json:"content"`
}
