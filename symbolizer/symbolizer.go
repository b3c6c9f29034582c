// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package symbolizer resolves native code addresses to display names and
// memoizes the answers for the lifetime of a profiling session.
package symbolizer // import "github.com/scriptprof/hookprof/symbolizer"

import (
	"errors"
	"sync/atomic"

	lru "github.com/elastic/go-freelru"
	"github.com/ianlancetaylor/demangle"
	log "github.com/sirupsen/logrus"

	"github.com/scriptprof/hookprof/libsp"
)

// ErrNoSymbol is returned by Sources for addresses they cannot name.
var ErrNoSymbol = errors.New("symbol not found")

// Source answers address lookups against some native symbol backing: a
// symbol table embedded in a capture, a map file, a debugger API. Returning
// an error is a normal outcome; the Resolver degrades to hex labels.
type Source interface {
	ResolveAddress(addr libsp.Address) (string, error)
}

// cacheSize bounds the resolved name cache. Sessions observe far fewer
// distinct native entry points than this; the bound only guards against a
// pathological host.
const cacheSize = 16384

// Resolver memoizes Source answers per address. It is safe for concurrent
// use so several reporters can share one instance.
type Resolver struct {
	source Source
	cache  *lru.SyncedLRU[libsp.Address, string]

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// NewResolver builds a Resolver on top of source. A nil source is valid and
// yields hex labels for every address.
func NewResolver(source Source) *Resolver {
	cache, err := lru.NewSynced[libsp.Address, string](cacheSize,
		libsp.Address.Hash32)
	if err != nil {
		// Capacity and hash function are fixed at compile time.
		panic(err)
	}
	return &Resolver{source: source, cache: cache}
}

// Resolve returns the display name for a native entry address. The source
// is consulted at most once per distinct address per session: failures are
// cached the same way successes are, so a dead address is not retried for
// every report line it appears on.
func (r *Resolver) Resolve(addr libsp.Address) string {
	if name, ok := r.cache.Get(addr); ok {
		r.hits.Add(1)
		return name
	}
	r.misses.Add(1)
	name := r.lookup(addr)
	r.cache.Add(addr, name)
	return name
}

func (r *Resolver) lookup(addr libsp.Address) string {
	if r.source == nil {
		return addr.String()
	}
	name, err := r.source.ResolveAddress(addr)
	if err != nil {
		r.failures.Add(1)
		log.Debugf("Failed to symbolize %v: %v", addr, err)
		return addr.String()
	}
	return demangle.Filter(name)
}

// Stats reports resolver behavior for end of session logging.
func (r *Resolver) Stats() (hits, misses, failures uint64) {
	return r.hits.Load(), r.misses.Load(), r.failures.Load()
}

// chain tries sources in order; the first answer wins.
type chain []Source

func (c chain) ResolveAddress(addr libsp.Address) (string, error) {
	for _, s := range c {
		if name, err := s.ResolveAddress(addr); err == nil {
			return name, nil
		}
	}
	return "", ErrNoSymbol
}

// Chain combines sources into one that answers from the first source that
// knows the address. Nil sources are skipped; chaining nothing yields a nil
// Source, which the Resolver accepts.
func Chain(sources ...Source) Source {
	var usable []Source
	for _, s := range sources {
		if s != nil {
			usable = append(usable, s)
		}
	}
	switch len(usable) {
	case 0:
		return nil
	case 1:
		return usable[0]
	default:
		return chain(usable)
	}
}
