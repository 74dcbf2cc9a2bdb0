package tui

import (
	"context"

	"github.com/lox/rummy/internal/companion"
	"github.com/lox/rummy/internal/game"
)

// Feed forwards game events and companion messages into the model. It is
// registered on the game's event bus and runs on the engine goroutine.
type Feed struct {
	model  *TUIModel
	viewer func() game.View
}

// NewFeed creates a feed. viewer returns the human's current view and is
// called synchronously while the event is published.
func NewFeed(model *TUIModel, viewer func() game.View) *Feed {
	return &Feed{model: model, viewer: viewer}
}

// OnEvent implements game.EventSubscriber
func (f *Feed) OnEvent(ev game.CompanionEvent) {
	var view game.View
	if f.viewer != nil {
		view = f.viewer()
	}
	f.model.post(eventMsg{event: ev, view: view})
}

// PumpChat copies companion messages into the chat pane until the channel
// closes or ctx is done
func (f *Feed) PumpChat(ctx context.Context, messages <-chan companion.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			f.model.post(chatMsg{message: msg})
		}
	}
}
