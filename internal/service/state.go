package service

import "service-meetings/internal/domain"

// State is the live application state: one collection and one override
// table per record kind. It is owned by the service and passed explicitly
// wherever core operations need it; nothing reads it through a global.
type State struct {
	collections map[domain.Kind]domain.Collection
	overrides   map[domain.Kind]domain.OverrideTable
}

func NewState() *State {
	s := &State{
		collections: make(map[domain.Kind]domain.Collection),
		overrides:   make(map[domain.Kind]domain.OverrideTable),
	}
	for _, kind := range domain.Kinds() {
		s.collections[kind] = domain.Collection{}
		s.overrides[kind] = domain.OverrideTable{}
	}
	return s
}

func (s *State) Collection(kind domain.Kind) domain.Collection {
	return s.collections[kind]
}

func (s *State) SetCollection(kind domain.Kind, c domain.Collection) {
	s.collections[kind] = c
}

func (s *State) Overrides(kind domain.Kind) domain.OverrideTable {
	return s.overrides[kind]
}

// SetOverride records a manually chosen status for an identity. The entry
// survives until the record is deleted.
func (s *State) SetOverride(kind domain.Kind, id int64, status domain.Status) {
	s.overrides[kind][id] = status
}

func (s *State) ClearOverride(kind domain.Kind, id int64) {
	delete(s.overrides[kind], id)
}

// RebuildOverrides reconstructs the override table of a kind from the
// persisted manual-status flags, typically after loading a collection.
func (s *State) RebuildOverrides(kind domain.Kind) {
	table := domain.OverrideTable{}
	for _, rec := range s.collections[kind] {
		if rec.ManualStatus && !domain.IsBlank(string(rec.Status)) {
			table[rec.ID] = rec.Status
		}
	}
	s.overrides[kind] = table
}
