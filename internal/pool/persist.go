package pool

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/adversity/internal/event"
)

// Record is the saved form of one event.
type Record struct {
	ID       string       `json:"id"`
	Status   event.Status `json:"status"`
	Cooldown float64      `json:"cooldown"`
}

// PersistAll flushes volatile state into the slots before a save.
// Holds do not survive a restart, so every held event is demoted to
// Enabled and released.
func (p *Pool) PersistAll() error {
	p.mu.RLock()
	contexts := make(map[string]struct{})
	for id := range p.holds {
		if e, ok := p.events[id]; ok {
			contexts[e.Context()] = struct{}{}
		}
	}
	p.mu.RUnlock()

	for ctx := range contexts {
		p.Reconcile(ctx, true)
	}
	return nil
}

// Save writes the durable state of every event ordered by id.
func (p *Pool) Save(w io.Writer) error {
	all := p.All()
	records := make([]Record, 0, len(all))
	for _, e := range all {
		st := e.State()
		records = append(records, Record{ID: e.ID(), Status: st.Status, Cooldown: st.Cooldown})
	}

	if err := json.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// Load restores saved state into the slots of events that still exist.
// Records for unknown ids are logged and skipped.
func (p *Pool) Load(r io.Reader) error {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("decode events: %w", err)
	}

	var unknown []string
	for _, rec := range records {
		e, ok := p.Get(rec.ID)
		if !ok {
			unknown = append(unknown, rec.ID)
			continue
		}
		e.Restore(event.State{Status: rec.Status, Cooldown: rec.Cooldown})
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		p.logger.Warn("saved events not loaded", "count", len(unknown), "ids", unknown)
	}
	return nil
}

// Revert drops all holds. Slots are left untouched.
func (p *Pool) Revert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holds = make(map[string]string)
}
