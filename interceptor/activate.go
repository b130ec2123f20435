package interceptor

import (
	"net/http"

	"github.com/tarmac-project/httpretty"
)

// Slot is a request entry point the interceptor can take over. Install puts
// the interceptor in place and returns a func that puts the original back.
type Slot interface {
	Install(i *Interceptor) (restore func())
}

// SlotFunc adapts a plain function to Slot.
type SlotFunc func(i *Interceptor) (restore func())

// Install calls f.
func (f SlotFunc) Install(i *Interceptor) func() { return f(i) }

// HTTPClient returns a Slot that replaces c.Transport. A nil c targets
// http.DefaultClient.
func HTTPClient(c *http.Client) Slot {
	if c == nil {
		c = http.DefaultClient
	}
	return SlotFunc(func(i *Interceptor) func() {
		prev := c.Transport
		c.Transport = i
		return func() { c.Transport = prev }
	})
}

// HostCallSwapper is implemented by clients with a replaceable host call,
// such as httpclient.HTTPClient.
type HostCallSwapper interface {
	SwapHostCall(fn httpretty.HostCall) httpretty.HostCall
}

// HostCallSlot returns a Slot that replaces the host call of s.
func HostCallSlot(s HostCallSwapper) Slot {
	return SlotFunc(func(i *Interceptor) func() {
		prev := s.SwapHostCall(i.HostCall)
		return func() { s.SwapHostCall(prev) }
	})
}

// Activate installs the interceptor into every slot. It must be paired with
// one Deactivate; activating again before that fails with
// httpretty.ErrAlreadyActive.
func (i *Interceptor) Activate(slots ...Slot) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.restore != nil {
		return httpretty.ErrAlreadyActive
	}

	i.restore = make([]func(), 0, len(slots))
	for _, s := range slots {
		i.restore = append(i.restore, s.Install(i))
	}

	i.log.Debug().Int("slots", len(slots)).Msg("activated")
	return nil
}

// Deactivate restores every slot taken over by Activate, last first.
func (i *Interceptor) Deactivate() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.restore == nil {
		return httpretty.ErrNotActive
	}

	for n := len(i.restore) - 1; n >= 0; n-- {
		i.restore[n]()
	}
	i.restore = nil

	i.log.Debug().Msg("deactivated")
	return nil
}

// Active reports whether the interceptor is installed.
func (i *Interceptor) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.restore != nil
}
