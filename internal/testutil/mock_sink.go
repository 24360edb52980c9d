//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/tarneeb41/internal/protocol"
)

// RecordingSink 记录对局广播和私信的 EventSink 实现，
// 供不需要真实连接的测试使用。
type RecordingSink struct {
	mu         sync.Mutex
	Broadcasts []*protocol.Message
	Sent       map[string][]*protocol.Message // connectionID → 私信
}

// NewRecordingSink 创建记录用 sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{Sent: make(map[string][]*protocol.Message)}
}

// Broadcast 实现 session.EventSink
func (r *RecordingSink) Broadcast(gameID string, msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broadcasts = append(r.Broadcasts, msg)
}

// SendTo 实现 session.EventSink
func (r *RecordingSink) SendTo(connectionID string, msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent[connectionID] = append(r.Sent[connectionID], msg)
}

// MessagesOfType 返回指定类型的全部广播
func (r *RecordingSink) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*protocol.Message
	for _, msg := range r.Broadcasts {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// LastOfType 返回指定类型的最后一条广播，没有返回 nil
func (r *RecordingSink) LastOfType(t protocol.MessageType) *protocol.Message {
	msgs := r.MessagesOfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset 清空已记录的消息
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broadcasts = nil
	r.Sent = make(map[string][]*protocol.Message)
}
