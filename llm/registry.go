package llm

import (
	"fmt"
	"sync"

	"github.com/openagora/agora/core"
)

var (
	providers    = make(map[string]Provider)
	providerLock sync.Mutex
)

// Register adds a provider adapter to the fixed set. Later registrations
// under the same name replace earlier ones, which tests rely on.
func Register(p Provider) {
	providerLock.Lock()
	defer providerLock.Unlock()
	providers[p.Name()] = p
}

// ForName looks up a registered provider by name.
func ForName(name string) (Provider, error) {
	providerLock.Lock()
	defer providerLock.Unlock()
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, core.ErrUnsupportedProvider)
	}
	return p, nil
}

// RegisterDefaults installs the built-in adapter set.
func RegisterDefaults() {
	Register(NewOpenAI(""))
	Register(NewAnthropic(""))
	Register(NewGemini(""))
}
