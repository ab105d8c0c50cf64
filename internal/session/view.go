package session

import (
	"sync"

	"github.com/substringlabs/roomchat/internal/domain"
)

// View is the ordered, append-only message list read by the presentation
// layer: the history snapshot followed by live messages. It never reorders
// and never deduplicates.
type View struct {
	mu   sync.RWMutex
	msgs []domain.Message
}

// NewView creates an empty view.
func NewView() *View {
	return &View{}
}

// Init replaces the view wholesale with the history snapshot.
func (v *View) Init(history []domain.Message) {
	v.mu.Lock()
	v.msgs = make([]domain.Message, len(history))
	copy(v.msgs, history)
	v.mu.Unlock()
}

// Append adds a live message to the end of the view.
func (v *View) Append(m domain.Message) {
	v.mu.Lock()
	v.msgs = append(v.msgs, m)
	v.mu.Unlock()
}

// Messages returns a snapshot copy of the view, oldest first.
func (v *View) Messages() []domain.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cp := make([]domain.Message, len(v.msgs))
	copy(cp, v.msgs)
	return cp
}

// Len returns the number of messages in the view.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.msgs)
}
