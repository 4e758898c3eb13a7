package editor

import "github.com/ef-ds/deque"

// killRing holds recently cut text, newest at the front.
type killRing struct {
	ring *deque.Deque
	max  int
}

func newKillRing(max int) *killRing {
	if max <= 0 {
		max = 1
	}
	return &killRing{ring: deque.New(), max: max}
}

func (k *killRing) push(text string) {
	if text == "" {
		return
	}
	k.ring.PushFront(text)
	for k.ring.Len() > k.max {
		k.ring.PopBack()
	}
}

func (k *killRing) top() (string, bool) {
	v, ok := k.ring.Front()
	if !ok {
		return "", false
	}
	return v.(string), true
}

// rotate moves the newest entry to the back and returns the new front.
func (k *killRing) rotate() (string, bool) {
	if k.ring.Len() == 0 {
		return "", false
	}
	v, _ := k.ring.PopFront()
	k.ring.PushBack(v)
	return k.top()
}
