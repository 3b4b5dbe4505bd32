package tables

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tsawler/timetable/model"
)

// Detector reconstructs the schedule tables printed on a page
type Detector interface {
	// Detect reconstructs the schedule tables of one page
	Detect(page *model.Page) ([]*model.ScheduleTable, []Warning)

	// Name returns the name the detector is registered under
	Name() string

	// Configure replaces the detector's calibration
	Configure(config Config) error
}

// Factory creates a detector with default calibration
type Factory func() Detector

// DetectorRegistry maps detector names to factories. Every lookup builds a
// new detector, so callers may configure the result freely.
type DetectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{factories: make(map[string]Factory)}
}

// Register adds a factory under the name of the detector it builds.
// Names must be unique.
func (r *DetectorRegistry) Register(factory Factory) error {
	name := factory().Name()
	if name == "" {
		return fmt.Errorf("detector has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("detector %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// New builds the detector registered as name
func (r *DetectorRegistry) New(name string) (Detector, bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Names returns the registered names, sorted
func (r *DetectorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var detectors = NewRegistry()

// RegisterDetector adds a factory to the package registry
func RegisterDetector(factory Factory) error {
	return detectors.Register(factory)
}

// NewDetector builds a detector from the package registry
func NewDetector(name string) (Detector, bool) {
	return detectors.New(name)
}

// ListDetectors returns the names in the package registry
func ListDetectors() []string {
	return detectors.Names()
}

func init() {
	if err := RegisterDetector(func() Detector { return NewScheduleDetector() }); err != nil {
		panic(err)
	}
}
