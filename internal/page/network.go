package page

import "sync"

const maxBufferedRequests = 500

// Network записывает URL запросов страницы и раздаёт их хукам. Хук получает
// уже накопленное, затем живые запросы до снятия.
type Network struct {
	mu     sync.Mutex
	seen   []string
	hooks  map[uint64]func(string)
	nextID uint64
}

func NewNetwork() *Network {
	return &Network{hooks: make(map[uint64]func(string))}
}

// Observe записывает запрос и отдаёт его всем хукам.
func (n *Network) Observe(url string) {
	if url == "" {
		return
	}

	n.mu.Lock()
	if len(n.seen) < maxBufferedRequests {
		n.seen = append(n.seen, url)
	}
	hooks := make([]func(string), 0, len(n.hooks))
	for _, fn := range n.hooks {
		hooks = append(hooks, fn)
	}
	n.mu.Unlock()

	for _, fn := range hooks {
		fn(url)
	}
}

// Hook ставит fn и проигрывает в неё накопленные запросы. Возвращаемая
// функция снимает хук, повторный вызов ничего не делает.
func (n *Network) Hook(fn func(string)) (restore func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.hooks[id] = fn
	backlog := make([]string, len(n.seen))
	copy(backlog, n.seen)
	n.mu.Unlock()

	for _, url := range backlog {
		fn(url)
	}

	return func() {
		n.mu.Lock()
		delete(n.hooks, id)
		n.mu.Unlock()
	}
}

// Hooked возвращает число установленных хуков.
func (n *Network) Hooked() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.hooks)
}

// Requests возвращает накопленные URL.
func (n *Network) Requests() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.seen))
	copy(out, n.seen)
	return out
}
