package patent

import (
	"github.com/turtacn/patent-normalizer/pkg/types/common"
)

// RecordRejectedEvent is published to the dead-letter topic when a record
// fails with a record-level error.
type RecordRejectedEvent struct {
	common.BaseEvent
	RunID   string `json:"run_id,omitempty"`
	File    string `json:"file,omitempty"`
	Record  int    `json:"record"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Snippet string `json:"snippet,omitempty"`
}

func NewRecordRejectedEvent(runID, file string, record int, code, message, snippet string) *RecordRejectedEvent {
	return &RecordRejectedEvent{
		BaseEvent: common.NewBaseEvent(file),
		RunID:     runID,
		File:      file,
		Record:    record,
		Code:      code,
		Message:   message,
		Snippet:   snippet,
	}
}

//Personal.AI order the ending
