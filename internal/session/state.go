package session

import (
	"sync"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/repository"
)

type Step string

const (
	StepIdle       Step = "IDLE"
	StepAnalyzing  Step = "ANALYZING"
	StepEncrypting Step = "ENCRYPTING"
	StepUploading  Step = "UPLOADING"
	StepCertifying Step = "CERTIFYING"
	StepSuccess    Step = "SUCCESS"
)

// Busy reports whether a pipeline currently owns the orchestrator.
func (s Step) Busy() bool {
	return s != StepIdle && s != StepSuccess
}

type StepEvent struct {
	SessionID string
	Step      Step
	At        time.Time
}

// Snapshot is a copy of the observable orchestrator state.
type Snapshot struct {
	SessionID  string
	Step       Step
	UpdatedAt  time.Time
	Record     *repository.DataBlobRecord
	Transcript string
	LastError  error
}

type stepBroadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan StepEvent
}

func (b *stepBroadcaster) subscribe(buffer int) (<-chan StepEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan StepEvent, buffer)
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan StepEvent)
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// publish drops the event for any subscriber whose buffer is full.
func (b *stepBroadcaster) publish(ev StepEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
