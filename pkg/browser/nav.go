package browser

// Sequence is the deep-link navigation order: externally supplied drop ids
// plus a pointer. The pointer is -1 (no position) or a valid index, and
// stepping never leaves the sequence.
type Sequence struct {
	ids []string
	pos int
}

// ResolveSequence builds the ordered sequence from the `ids` list and the
// single `id` parameter. The list keeps its supplied order, deduplicated by
// first occurrence; the single id is prepended when non-empty and not
// already present.
func ResolveSequence(idList []string, singleId string) Sequence {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(idList)+1)
	for _, id := range idList {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if singleId != "" {
		if _, ok := seen[singleId]; !ok {
			ids = append([]string{singleId}, ids...)
		}
	}
	return Sequence{ids: ids, pos: -1}
}

func (s *Sequence) Ids() []string {
	return s.ids
}

func (s *Sequence) Pos() int {
	return s.pos
}

func (s *Sequence) Current() string {
	if s.pos < 0 || s.pos >= len(s.ids) {
		return ""
	}
	return s.ids[s.pos]
}

// JumpTo points at id's position, or -1 when the id is not part of the
// sequence (prev/next stay disabled then).
func (s *Sequence) JumpTo(id string) int {
	s.pos = -1
	for i, v := range s.ids {
		if v == id {
			s.pos = i
			break
		}
	}
	return s.pos
}

// StepPrev moves the pointer back one slot; no-op at the start or without a
// position.
func (s *Sequence) StepPrev() string {
	if s.pos <= 0 {
		return s.Current()
	}
	s.pos--
	return s.Current()
}

// StepNext moves the pointer forward one slot; no-op at the end or without a
// position.
func (s *Sequence) StepNext() string {
	if s.pos == -1 || s.pos >= len(s.ids)-1 {
		return s.Current()
	}
	s.pos++
	return s.Current()
}

// ResolveNavigation installs a new sequence on the session.
func (a *App) ResolveNavigation(idList []string, singleId string) Sequence {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav = ResolveSequence(idList, singleId)
	return a.nav
}

// JumpTo opens a drop by id: updates the pointer and returns the item when
// the session knows it.
func (a *App) JumpTo(id string) (*NavState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.JumpTo(id)
	_, known := a.Catalog.Get(id)
	return a.navState(), known
}

func (a *App) StepPrev() *NavState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.StepPrev()
	return a.navState()
}

func (a *App) StepNext() *NavState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.StepNext()
	return a.navState()
}

// NavState is the serializable navigation snapshot: the full list (reflected
// back into the address bar), the pointer and whether stepping is possible.
type NavState struct {
	Ids     []string `json:"ids"`
	Pos     int      `json:"pos"`
	Current string   `json:"current,omitempty"`
	HasPrev bool     `json:"hasPrev"`
	HasNext bool     `json:"hasNext"`
}

func (a *App) navState() *NavState {
	return &NavState{
		Ids:     a.nav.ids,
		Pos:     a.nav.pos,
		Current: a.nav.Current(),
		HasPrev: a.nav.pos > 0,
		HasNext: a.nav.pos >= 0 && a.nav.pos < len(a.nav.ids)-1,
	}
}

// NavState returns the current snapshot without moving the pointer.
func (a *App) NavState() *NavState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navState()
}
