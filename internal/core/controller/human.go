package controller

import "sync/atomic"

type Key uint8

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
)

// KeySource reports which keys are currently held.
type KeySource interface {
	IsDown(k Key) bool
}

// Keys is a KeySource fed from another goroutine, e.g. a network input.
type Keys struct {
	bits atomic.Uint32
}

var _ KeySource = (*Keys)(nil)

func (k *Keys) Press(key Key)   { k.bits.Or(1 << key) }
func (k *Keys) Release(key Key) { k.bits.And(^uint32(1 << key)) }

// Set replaces the whole key state at once.
func (k *Keys) Set(up, down, left, right bool) {
	var v uint32
	for key, on := range [...]bool{KeyUp: up, KeyDown: down, KeyLeft: left, KeyRight: right} {
		if on {
			v |= 1 << key
		}
	}
	k.bits.Store(v)
}

func (k *Keys) IsDown(key Key) bool { return k.bits.Load()&(1<<key) != 0 }

// Human maps arrow keys onto commands. Throttle without a turn key
// recenters the wheel.
type Human struct {
	keys KeySource
}

var _ Controller = (*Human)(nil)

func NewHuman(keys KeySource) *Human {
	return &Human{keys: keys}
}

func (h *Human) Kind() Kind { return KindHuman }

func (h *Human) Decide(Observation) Command {
	cmd := Command{
		Gas:   h.keys.IsDown(KeyUp),
		Brake: h.keys.IsDown(KeyDown),
		Left:  h.keys.IsDown(KeyLeft),
		Right: h.keys.IsDown(KeyRight),
	}
	cmd.Straighten = cmd.Gas && !cmd.Left && !cmd.Right
	return cmd
}
