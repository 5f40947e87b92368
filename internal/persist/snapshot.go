package persist

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/l1jgo/devkit/internal/core/ecs"
)

// Snapshot is a serialized copy of every live entity in a World.
type Snapshot struct {
	ID       int64
	Frame    int64
	TakenAt  time.Time
	Entities []EntityRecord
}

// EntityRecord is one entity of a snapshot. Index and Generation are the
// entity's id at capture time; a restored entity gets a fresh id.
type EntityRecord struct {
	Index      uint32
	Generation uint32
	Enabled    bool
	Components []ComponentRecord
}

// ComponentRecord holds a component's registered name and JSON payload.
type ComponentRecord struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Capture serializes every valid entity of w that is not dying. Components
// are encoded with their JSON tags; fields tagged "-" (native handles) are
// not captured.
func Capture(w *ecs.World, frame int64) (*Snapshot, error) {
	snap := &Snapshot{Frame: frame, TakenAt: time.Now(), Entities: make([]EntityRecord, 0, w.Len())}
	var err error
	w.Each(func(e ecs.Entity) {
		if err != nil || e.Dying() {
			return
		}
		rec := EntityRecord{
			Index:      e.ID().Index(),
			Generation: e.ID().Generation(),
			Enabled:    e.Enabled(),
		}
		for _, c := range e.Components() {
			payload, mErr := json.Marshal(c)
			if mErr != nil {
				err = fmt.Errorf("encode %s on %s: %w", c.Name(), e, mErr)
				return
			}
			rec.Components = append(rec.Components, ComponentRecord{Name: c.Name(), Payload: payload})
		}
		snap.Entities = append(snap.Entities, rec)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore recreates every entity of snap in w, in record order. Components are
// attached in record order, so attach hooks observe the same sibling order as
// at capture time. On error the entities created so far are returned and the
// failing entity is killed.
func Restore(w *ecs.World, snap *Snapshot) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, len(snap.Entities))
	for _, rec := range snap.Entities {
		e := w.CreateEntity()
		if !rec.Enabled {
			_ = e.Disable()
		}
		for _, cr := range rec.Components {
			c, err := decodeComponent(cr)
			if err == nil {
				err = e.Add(c)
			}
			if err != nil {
				_ = e.Kill()
				return out, fmt.Errorf("restore entity %d: %w", rec.Index, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeComponent(cr ComponentRecord) (ecs.Component, error) {
	c, err := ecs.Components().New(cr.Name)
	if err != nil {
		return nil, err
	}
	if len(cr.Payload) > 0 {
		if err := json.Unmarshal(cr.Payload, c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", cr.Name, err)
		}
	}
	return c, nil
}
