package model

import "time"

// Category groups procedure codes that share timeline and area behavior.
type Category struct {
	Name            string        // e.g. "E&M"
	DefaultDuration time.Duration // event length used by the timeline detector
	AreaAgnostic    bool          // excluded from body-area inference
	Visit           bool          // office/clinic/ED encounter codes
}

// DefaultEventDuration applies when a claim's category is unknown.
const DefaultEventDuration = 30 * time.Minute

// AllCategories lists the procedure categories the reference database may use.
var AllCategories = []Category{
	{Name: "E&M", DefaultDuration: 30 * time.Minute, AreaAgnostic: true, Visit: true},
	{Name: "Surgery", DefaultDuration: 120 * time.Minute},
	{Name: "Radiology", DefaultDuration: 45 * time.Minute},
	{Name: "Cardiology", DefaultDuration: 40 * time.Minute},
	{Name: "Orthopedic", DefaultDuration: 30 * time.Minute},
	{Name: "Laboratory", DefaultDuration: 15 * time.Minute},
	{Name: "Pharmacy", DefaultDuration: 10 * time.Minute},
	{Name: "Supplies", DefaultDuration: 5 * time.Minute, AreaAgnostic: true},
	{Name: "Physical Therapy", DefaultDuration: 60 * time.Minute, AreaAgnostic: true},
}

// CategoryNames returns just the names for all categories.
func CategoryNames() []string {
	names := make([]string, len(AllCategories))
	for i, c := range AllCategories {
		names[i] = c.Name
	}
	return names
}

// CategoryByName returns the Category for the given name, or ok=false.
func CategoryByName(name string) (Category, bool) {
	for _, c := range AllCategories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// DurationFor returns the default event duration for a category name.
func DurationFor(name string) time.Duration {
	if c, ok := CategoryByName(name); ok {
		return c.DefaultDuration
	}
	return DefaultEventDuration
}
