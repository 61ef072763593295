// Package otpinput models a fixed-length one-time-code input: one
// character per cell, a focused cell, and a completion callback.
package otpinput

import "strings"

// State is a copy of the challenge for rendering.
type State struct {
	Cells    []string `json:"cells"`
	Active   int      `json:"active"`
	Code     string   `json:"code"`
	Complete bool     `json:"complete"`
}

// Challenge is not safe for concurrent use; callers serialize events.
type Challenge struct {
	cells      []string
	active     int
	onComplete func(code string)
	// fired is the code last passed to onComplete while the cells stayed full.
	fired string
}

// New returns an empty challenge with length cells. onComplete may be nil.
func New(length int, onComplete func(code string)) *Challenge {
	if length < 1 {
		length = 1
	}
	return &Challenge{cells: make([]string, length), onComplete: onComplete}
}

func (c *Challenge) Len() int { return len(c.cells) }

// Type stores the last character of input in cell i and advances focus.
// An empty input clears the cell without moving focus.
func (c *Challenge) Type(i int, input string) {
	if !c.valid(i) {
		return
	}
	c.active = i
	r := []rune(input)
	if len(r) == 0 {
		c.cells[i] = ""
		c.evaluate()
		return
	}
	c.cells[i] = string(r[len(r)-1])
	if i < len(c.cells)-1 {
		c.active = i + 1
	}
	c.evaluate()
}

// Backspace clears an occupied cell in place, or moves focus left from an
// empty one.
func (c *Challenge) Backspace(i int) {
	if !c.valid(i) {
		return
	}
	c.active = i
	if c.cells[i] == "" {
		if i > 0 {
			c.active = i - 1
		}
		return
	}
	c.cells[i] = ""
	c.evaluate()
}

func (c *Challenge) ArrowLeft(i int) {
	if c.valid(i) {
		c.active = max(i-1, 0)
	}
}

func (c *Challenge) ArrowRight(i int) {
	if c.valid(i) {
		c.active = min(i+1, len(c.cells)-1)
	}
}

func (c *Challenge) Focus(i int) {
	if c.valid(i) {
		c.active = i
	}
}

// Paste replaces every cell with text, truncated to the challenge length.
// Focus lands on the last filled cell.
func (c *Challenge) Paste(text string) {
	r := []rune(text)
	if len(r) > len(c.cells) {
		r = r[:len(c.cells)]
	}
	for i := range c.cells {
		if i < len(r) {
			c.cells[i] = string(r[i])
		} else {
			c.cells[i] = ""
		}
	}
	c.active = max(len(r)-1, 0)
	c.evaluate()
}

// Reset empties every cell and focuses the first one.
func (c *Challenge) Reset() {
	for i := range c.cells {
		c.cells[i] = ""
	}
	c.active = 0
	c.fired = ""
}

func (c *Challenge) Code() string { return strings.Join(c.cells, "") }

func (c *Challenge) Complete() bool {
	for _, v := range c.cells {
		if v == "" {
			return false
		}
	}
	return true
}

func (c *Challenge) State() State {
	cells := make([]string, len(c.cells))
	copy(cells, c.cells)
	return State{Cells: cells, Active: c.active, Code: c.Code(), Complete: c.Complete()}
}

// evaluate fires onComplete once each time the cells become full with a
// code that has not been reported since they last were.
func (c *Challenge) evaluate() {
	if !c.Complete() {
		c.fired = ""
		return
	}
	code := c.Code()
	if code == c.fired {
		return
	}
	c.fired = code
	if c.onComplete != nil {
		c.onComplete(code)
	}
}

func (c *Challenge) valid(i int) bool { return i >= 0 && i < len(c.cells) }
