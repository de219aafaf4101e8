package model

// MessageKind tags the variant carried by Message
type MessageKind int

const (
	MessageData MessageKind = iota
	MessageDone
	MessageError
)

func (k MessageKind) String() string {
	switch k {
	case MessageData:
		return "data"
	case MessageDone:
		return "done"
	case MessageError:
		return "error"
	default:
		return "unknown"
	}
}

// Message travels on the shared queue between source workers and the coordinator.
// Each worker sends its rows followed by exactly one Done or Error message.
type Message struct {
	Kind    MessageKind
	Source  SourceRef
	Row     *EventRow      // MessageData
	Metrics *WorkerMetrics // MessageDone
	Err     error          // MessageError
}

// DataMessage wraps a row
func DataMessage(src SourceRef, row *EventRow) Message {
	return Message{Kind: MessageData, Source: src, Row: row}
}

// DoneMessage reports successful completion of a source with its final metrics
func DoneMessage(src SourceRef, metrics *WorkerMetrics) Message {
	return Message{Kind: MessageDone, Source: src, Metrics: metrics}
}

// ErrorMessage reports the failure of a source
func ErrorMessage(src SourceRef, err error) Message {
	return Message{Kind: MessageError, Source: src, Err: err}
}
