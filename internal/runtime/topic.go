package runtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// TopicMeta holds the registry record for one topic.
type TopicMeta struct {
	Name        string `json:"name"`
	Partitions  int    `json:"partitions"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

var topicMetaPrefix = []byte("topicmeta/")

func topicMetaKey(name string) []byte {
	k := make([]byte, 0, len(topicMetaPrefix)+len(name))
	k = append(k, topicMetaPrefix...)
	k = append(k, name...)
	return k
}

// EnsureTopic creates a topic registry record if absent, returning the
// effective meta. Idempotent: an existing record wins, including its
// partition count.
func (r *Runtime) EnsureTopic(name string, partitions int) (TopicMeta, error) {
	if partitions <= 0 {
		return TopicMeta{}, fmt.Errorf("runtime: topic %q needs at least one partition", name)
	}
	if m, ok := r.TopicMeta(name); ok {
		return m, nil
	}
	m := TopicMeta{Name: name, Partitions: partitions, CreatedAtMs: time.Now().UnixMilli()}
	b, err := json.Marshal(m)
	if err != nil {
		return TopicMeta{}, err
	}
	if err := r.db.Set(topicMetaKey(name), b); err != nil {
		return TopicMeta{}, err
	}
	return m, nil
}

// TopicMeta loads the registry record for a topic.
func (r *Runtime) TopicMeta(name string) (TopicMeta, bool) {
	b, err := r.db.Get(topicMetaKey(name))
	if err != nil || len(b) == 0 {
		return TopicMeta{}, false
	}
	var m TopicMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return TopicMeta{}, false
	}
	return m, true
}
