// Package progress carries stage and step notifications from a long running
// operation to whoever is displaying them.
package progress

// Kind identifies what a Message reports
type Kind int

const (
	// KindStage starts a new stage; Stage and Total are set
	KindStage Kind = iota
	// KindStep reports Done units completed within the current stage
	KindStep
	// KindComplete is the terminal message of a successful run
	KindComplete
)

// CompleteLabel is the stage label carried by the terminal message
const CompleteLabel = "Complete"

// Message is a single progress notification
type Message struct {
	Kind  Kind
	Stage string
	Total int
	Done  int
}

// Sink receives progress messages. Put must not block the caller.
type Sink interface {
	Put(Message)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(Message)

// Put calls f(m)
func (f SinkFunc) Put(m Message) {
	f(m)
}

// Stage reports the start of a stage of total units. A nil sink is ignored.
func Stage(s Sink, name string, total int) {
	if s != nil {
		s.Put(Message{Kind: KindStage, Stage: name, Total: total})
	}
}

// Step reports done units completed in the current stage
func Step(s Sink, done int) {
	if s != nil {
		s.Put(Message{Kind: KindStep, Done: done})
	}
}

// Complete reports successful completion
func Complete(s Sink) {
	if s != nil {
		s.Put(Message{Kind: KindComplete, Stage: CompleteLabel})
	}
}
