// SPDX-License-Identifier: MPL-2.0

package config

import "sync"

var (
	overrideMu        sync.RWMutex
	configDirOverride string
)

// SetConfigDirOverride points ConfigDir at dir. Pass "" to restore the
// platform default. Intended for tests.
func SetConfigDirOverride(dir string) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	configDirOverride = dir
}

func getConfigDirOverride() string {
	overrideMu.RLock()
	defer overrideMu.RUnlock()
	return configDirOverride
}
