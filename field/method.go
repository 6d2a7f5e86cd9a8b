package field

import "sync"

var (
	methodsLock sync.RWMutex
	methods     = map[string]string{
		"mean":          "mean",
		"average":       "mean",
		"sum":           "sum",
		"cumulative":    "sum",
		"point":         "point",
		"instantaneous": "point",
		"min":           "minimum",
		"minimum":       "minimum",
		"max":           "maximum",
		"maximum":       "maximum",
	}
)

// CanonicalMethod resolves an aggregation method name or alias to its
// canonical name.
func CanonicalMethod(name string) (string, bool) {
	methodsLock.RLock()
	defer methodsLock.RUnlock()

	canonical, ok := methods[name]

	return canonical, ok
}

// RegisterMethod makes an aggregation method and its aliases known to schema
// validation.
func RegisterMethod(name string, aliases ...string) {
	methodsLock.Lock()
	defer methodsLock.Unlock()

	methods[name] = name
	for _, alias := range aliases {
		methods[alias] = name
	}
}
