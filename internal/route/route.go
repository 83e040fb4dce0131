// Package route classifies enriched sessions and resolves their destination
// topic from an immutable routing table.
//
// The table is built once at startup, validated before any partition loop
// runs, and shared read-only across loops; no locking is required.
package route

import "fmt"

// Tag is a classification bucket.
type Tag string

const (
	TagUSA           Tag = "USA"
	TagInternational Tag = "International"
)

// requiredTags must all be present in a Table for routing to work.
var requiredTags = []Tag{TagUSA, TagInternational}

// MissingRouteError reports a required tag absent from the table. This is a
// startup-time configuration fault, not a per-record fault.
type MissingRouteError struct {
	Tag Tag
}

func (e *MissingRouteError) Error() string {
	return fmt.Sprintf("route: no destination configured for tag %q", e.Tag)
}

// Classify maps a session country to its tag. Exactly "USA" is domestic;
// every other value, the empty string included, is international.
func Classify(country string) Tag {
	if country == "USA" {
		return TagUSA
	}
	return TagInternational
}

// Table maps classification tags to destination topic names.
type Table map[Tag]string

// NewTable builds a Table from a startup-supplied mapping of tag names to
// destination topics.
func NewTable(routes map[string]string) Table {
	t := make(Table, len(routes))
	for tag, topic := range routes {
		t[Tag(tag)] = topic
	}
	return t
}

// Validate checks that every required tag has a destination. Call once
// before starting any partition loop; a failure is fatal.
func (t Table) Validate() error {
	for _, tag := range requiredTags {
		if t[tag] == "" {
			return &MissingRouteError{Tag: tag}
		}
	}
	return nil
}

// Resolve returns the destination topic for a session country.
func (t Table) Resolve(country string) (string, error) {
	tag := Classify(country)
	topic, ok := t[tag]
	if !ok || topic == "" {
		return "", &MissingRouteError{Tag: tag}
	}
	return topic, nil
}

// Destinations returns the set of destination topics, for startup
// provisioning.
func (t Table) Destinations() []string {
	seen := make(map[string]struct{}, len(t))
	out := make([]string, 0, len(t))
	for _, topic := range t {
		if _, ok := seen[topic]; ok || topic == "" {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	return out
}
