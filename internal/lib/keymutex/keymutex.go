// Package keymutex предоставляет мьютекс, захватываемый по строковому ключу.
// Неиспользуемые ключи удаляются, поэтому память не растёт с числом пользователей.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex набор мьютексов по ключам.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New создаёт пустой KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock захватывает мьютекс ключа и возвращает функцию освобождения.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// Len количество ключей, которые сейчас удерживаются или ожидаются.
func (k *KeyMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
