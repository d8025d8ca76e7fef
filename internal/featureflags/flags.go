// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Known flags.
const (
	// FactoryMonitor starts the background monitoring poller.
	FactoryMonitor = "factory_monitor"
	// FactoryAutoSync mirrors each manual factory update into the feed.
	FactoryAutoSync = "factory_auto_sync"
	// ImageUploads allows image attachments on new posts; supports N% rollout.
	ImageUploads = "image_uploads"
	// Realtime enables the websocket feed.
	Realtime = "realtime"
)

// Defaults apply when FEATURE_FLAGS does not mention a flag.
var Defaults = map[string]string{
	FactoryMonitor:  "on",
	FactoryAutoSync: "off",
	ImageUploads:    "on",
	Realtime:        "on",
}

// Set holds parsed flag values, e.g. "factory_monitor=on,image_uploads=25%".
type Set struct {
	values map[string]string
}

// Parse reads a comma separated name=value list on top of Defaults.
// Malformed pairs are ignored.
func Parse(raw string) *Set {
	values := maps.Clone(Defaults)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		values[name] = value
	}
	return &Set{values: values}
}

// On reports whether a system-wide flag is switched on. Percentage values
// only apply to users and count as off here, except 100%.
func (s *Set) On(name string) bool {
	return s.Enabled(name, 0)
}

// Enabled evaluates name for one user. on/true/1 and off/false/0 are absolute;
// N% enables a deterministic N percent of non-zero user ids.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	value, ok := s.values[normalize(name)]
	if !ok {
		return false
	}
	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every known flag for one user.
func (s *Set) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(s.values))
	for name := range s.values {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
