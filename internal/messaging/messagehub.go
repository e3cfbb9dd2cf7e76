package messaging

import (
	"sync"

	"github.com/kwkoo/go-birdr/internal/logger"
)

const chanSize = 20

// topics
const (
	SessionStateTopic = "session-state"
	ConsoleInputTopic = "console-input"
)

type MessageHub struct {
	mux    sync.Mutex
	chans  map[string](chan interface{})
	closed bool
	done   chan struct{}

	// held for reading by blocked senders so Close never closes a topic
	// under them
	sending sync.RWMutex
}

func InitMessageHub() *MessageHub {
	return &MessageHub{
		chans: make(map[string]chan interface{}),
		done:  make(chan struct{}),
	}
}

// Send blocks until the topic has room for msg or the hub is closed.
func (mh *MessageHub) Send(topicname string, msg interface{}) {
	mh.sending.RLock()
	defer mh.sending.RUnlock()
	topic := mh.GetTopic(topicname)
	if topic == nil {
		return
	}
	select {
	case topic <- msg:
	case <-mh.done:
	}
}

// TrySend delivers msg only if the topic has room. It reports whether the
// message was queued.
func (mh *MessageHub) TrySend(topicname string, msg interface{}) bool {
	mh.mux.Lock()
	defer mh.mux.Unlock()
	if mh.closed {
		return false
	}
	topic := mh.topicLocked(topicname)
	select {
	case topic <- msg:
		return true
	default:
		log := logger.For("messagehub")
		log.Debug().Str("topic", topicname).Msg("topic full, dropping message")
		return false
	}
}

func (mh *MessageHub) Close() {
	mh.mux.Lock()
	if mh.closed {
		mh.mux.Unlock()
		return
	}
	mh.closed = true
	close(mh.done)
	mh.mux.Unlock()

	mh.sending.Lock()
	defer mh.sending.Unlock()
	mh.mux.Lock()
	defer mh.mux.Unlock()
	for _, c := range mh.chans {
		close(c)
	}
	log := logger.For("messagehub")
	log.Info().Msg("MessageHub shutdown complete")
}

// GetTopic returns the channel for name, creating it on first use. It
// returns nil once the hub is closed.
func (mh *MessageHub) GetTopic(name string) chan interface{} {
	mh.mux.Lock()
	defer mh.mux.Unlock()
	if mh.closed {
		return nil
	}
	return mh.topicLocked(name)
}

func (mh *MessageHub) topicLocked(name string) chan interface{} {
	topic, ok := mh.chans[name]
	if ok {
		return topic
	}
	topic = make(chan interface{}, chanSize)
	mh.chans[name] = topic
	log := logger.For("messagehub")
	log.Debug().Str("topic", name).Msg("created topic")
	return topic
}
