package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: EventPageStart, Page: 4}, "Extracting page 4…"},
		{Event{Kind: EventPageDone, Page: 4}, "Extracted page 4"},
		{Event{Kind: EventPageError, Page: 9, Message: "empty model response"}, "Error on page 9: empty model response"},
		{Event{Kind: EventCancelling}, "Cancelling…"},
		{Event{Kind: EventFinished}, "Finished extraction"},
		{Event{Kind: EventCancelled}, "Extraction cancelled"},
		{Event{Kind: EventNoPages}, "No pages extracted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ev.String())
	}
	assert.True(t, Event{Kind: EventCancelled}.Terminal())
	assert.False(t, Event{Kind: EventPageError}.Terminal())
}

func TestProgress_DropsWhenFull(t *testing.T) {
	p := NewProgress(2)
	for i := 1; i <= 5; i++ {
		p.Publish(Event{Kind: EventPageStart, Page: i})
	}
	assert.Equal(t, int64(3), p.Dropped())

	events := drain(p)
	assert.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Page)
}

func TestProgress_PublishAfterClose(t *testing.T) {
	p := NewProgress(1)
	p.Close()
	p.Close()

	assert.NotPanics(t, func() { p.Publish(Event{Kind: EventFinished}) })
	_, open := <-p.Events()
	assert.False(t, open)
}

func TestProgress_Nil(t *testing.T) {
	var p *Progress
	assert.NotPanics(t, func() {
		p.Publish(Event{Kind: EventFinished})
		p.Close()
	})
	assert.Zero(t, p.Dropped())

	_, open := <-p.Events()
	assert.False(t, open)
}
