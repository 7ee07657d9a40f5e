package sfx

// DuplicateKey scopes duplicate tracking
// Overlay keys leave Origin empty so tracking is global per effect
type DuplicateKey struct {
	Origin string
	Effect string
}

// tracker maps duplicate keys to the watch of the instance currently audible
// Not safe for concurrent use, the dispatcher lock guards it
type tracker struct {
	active map[DuplicateKey]*watch
}

func newTracker() *tracker {
	return &tracker{active: make(map[DuplicateKey]*watch)}
}

func (t *tracker) get(key DuplicateKey) (*watch, bool) {
	w, ok := t.active[key]
	return w, ok
}

func (t *tracker) put(key DuplicateKey, w *watch) {
	t.active[key] = w
}

// remove deletes key only while it still points at w
func (t *tracker) remove(key DuplicateKey, w *watch) bool {
	if cur, ok := t.active[key]; ok && cur == w {
		delete(t.active, key)
		return true
	}
	return false
}

func (t *tracker) len() int {
	return len(t.active)
}

func (t *tracker) clear() {
	clear(t.active)
}
