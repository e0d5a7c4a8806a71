package play

import (
	"strconv"
)

func (p *PlayScreen) crisisKey(key string) {
	cs := p.sess.Crisis()
	n := len(cs.Slots())
	if n == 0 {
		return
	}
	p.cursor = min(p.cursor, n-1)

	if d, err := strconv.Atoi(key); err == nil && len(key) == 1 {
		actions := cs.Scenario().Actions
		if d >= 1 && d <= len(actions) {
			if err := cs.Place(p.cursor, actions[d-1].ID); err != nil {
				p.fail(err)
				return
			}
			p.cursor = min(p.cursor+1, n-1)
		}
		return
	}

	switch key {
	case "up", "k":
		p.cursor = max(p.cursor-1, 0)
	case "down", "j":
		p.cursor = min(p.cursor+1, n-1)
	case "backspace", "delete", "x":
		if err := cs.Clear(p.cursor); err != nil {
			p.fail(err)
		}
	case "K", "shift+k", "shift+up":
		if p.cursor > 0 {
			if err := cs.Swap(p.cursor, p.cursor-1); err != nil {
				p.fail(err)
				return
			}
			p.cursor--
		}
	case "J", "shift+j", "shift+down":
		if p.cursor < n-1 {
			if err := cs.Swap(p.cursor, p.cursor+1); err != nil {
				p.fail(err)
				return
			}
			p.cursor++
		}
	}
}
