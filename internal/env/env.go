// Package env resolves environment variables that were renamed between
// releases.
package env

import (
	"log"
	"os"
	"strings"
	"sync"
)

var (
	warnLogger func(format string, args ...any) = log.Printf
	warnMu     sync.Mutex
	warnedKeys sync.Map
)

// LegacyPrefix is the prefix used by releases that shipped before the
// OXCRACK_ rename.
const LegacyPrefix = "0XCRACK_"

// Prefix is the current environment prefix.
const Prefix = "OXCRACK_"

// Lookup returns the value of key. When key is unset the legacy names are
// consulted in order; a hit logs a one-time deprecation warning. Surrounding
// whitespace is trimmed and blank values count as unset.
func Lookup(key string, legacy ...string) (string, bool) {
	if v, ok := lookupTrimmed(key); ok {
		return v, true
	}
	for _, old := range legacy {
		if v, ok := lookupTrimmed(old); ok {
			logDeprecated(old, key)
			return v, true
		}
	}
	return "", false
}

// LookupSuffix looks up Prefix+suffix, falling back to LegacyPrefix+suffix.
func LookupSuffix(suffix string) (string, bool) {
	return Lookup(Prefix+suffix, LegacyPrefix+suffix)
}

func lookupTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func logDeprecated(oldKey, newKey string) {
	onceIface, _ := warnedKeys.LoadOrStore(oldKey, &sync.Once{})
	once := onceIface.(*sync.Once)
	once.Do(func() {
		warnMu.Lock()
		logger := warnLogger
		warnMu.Unlock()
		logger("%s is deprecated; use %s", oldKey, newKey)
	})
}

// ResetWarningsForTesting clears the cached once guards so tests can verify
// warning behaviour deterministically.
func ResetWarningsForTesting() {
	warnMu.Lock()
	warnedKeys = sync.Map{}
	warnMu.Unlock()
}

// SetWarnLoggerForTesting swaps the logger used for warnings. The returned
// function restores the previous logger and should be deferred in tests.
func SetWarnLoggerForTesting(fn func(format string, args ...any)) (restore func()) {
	warnMu.Lock()
	previous := warnLogger
	warnLogger = fn
	warnMu.Unlock()
	return func() {
		warnMu.Lock()
		warnLogger = previous
		warnMu.Unlock()
	}
}
