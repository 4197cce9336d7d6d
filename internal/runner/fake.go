package runner

import (
	"context"
	"sync"
)

// Fake is a Runner for tests. Responses are keyed by command name; commands
// without a registered response succeed with empty stderr.
type Fake struct {
	mu        sync.Mutex
	calls     []Command
	responses map[string]fakeResponse
}

type fakeResponse struct {
	stderr []byte
	err    error
}

var _ Runner = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{responses: make(map[string]fakeResponse)}
}

// Respond sets the result returned for invocations of the named command.
func (f *Fake) Respond(name string, stderr []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = fakeResponse{stderr: stderr, err: err}
}

func (f *Fake) Run(_ context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	resp := f.responses[cmd.Name]
	return resp.stderr, resp.err
}

// Calls returns every command run so far, in order.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the commands run with the given name.
func (f *Fake) CallsTo(name string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
