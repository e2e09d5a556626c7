package keyboard

import (
	"github.com/lithos-os/lithos/console"
	"github.com/lithos-os/lithos/task"
)

// NewKeyTask returns the keyboard consumer task: it drains the scancode
// stream, decodes keystrokes, and hands each one to the handler. The task
// suspends when the queue is empty and finishes when the stream closes.
func NewKeyTask(stream *ScancodeStream, handler func(Key)) *task.Task {
	decoder := NewDecoder()
	return task.New(func(w task.Waker) task.Status {
		for {
			scancode, result := stream.PollNext(w)
			switch result {
			case PollPending:
				return task.StatusPending
			case PollClosed:
				return task.StatusDone
			}

			if key, ok := decoder.Feed(scancode); ok {
				handler(key)
			}
		}
	})
}

// NewPrintKeypressesTask returns a keyboard task that echoes every
// keystroke to the console.
func NewPrintKeypressesTask(stream *ScancodeStream) *task.Task {
	return NewKeyTask(stream, EchoKey)
}

// EchoKey prints one decoded keystroke: characters verbatim, raw keys by
// name.
func EchoKey(key Key) {
	if key.Rune != 0 {
		console.WriteRune(key.Rune)
		return
	}
	console.WriteString("<" + key.Name + ">")
}
