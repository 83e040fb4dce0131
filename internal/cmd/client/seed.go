package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "sessionflow/internal/config"
	"sessionflow/internal/runtime"
	pebblestore "sessionflow/internal/storage/pebble"
	"sessionflow/internal/stream/embedded"
	"sessionflow/pkg/id"
)

var seedCities = []struct {
	city    string
	country string
}{
	{"Washington", "USA"},
	{"New York", "USA"},
	{"Chicago", "USA"},
	{"Berlin", "Germany"},
	{"Paris", "France"},
	{"Tokyo", "Japan"},
	{"Sydney", "Australia"},
}

var seedProducts = []string{"P-1001", "P-1002", "P-2001", "P-3001", "P-3002", "P-4001"}

// NewSeedCommand constructs the `seed` command: it appends synthetic
// shopping sessions to the embedded source topic.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append synthetic shopping sessions to the embedded source topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			topic, _ := cmd.Flags().GetString("topic")
			count, _ := cmd.Flags().GetInt("count")
			partitions, _ := cmd.Flags().GetInt("partitions")

			if dataDir == "" {
				dataDir = cfgpkg.DefaultDataDir()
			}
			rt, err := runtime.Open(runtime.Options{
				DataDir: filepath.Join(dataDir, "store"),
				Fsync:   pebblestore.FsyncModeAlways,
			})
			if err != nil {
				return err
			}
			defer rt.Close()
			if _, err := rt.EnsureTopic(topic, partitions); err != nil {
				return err
			}

			sink := embedded.NewSink(rt)
			gen := id.NewGenerator()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			for i := 0; i < count; i++ {
				sid := gen.Next().String()
				payload, err := json.Marshal(syntheticSession(sid, rng))
				if err != nil {
					return err
				}
				if _, err := sink.Publish(context.Background(), topic, sid, payload); err != nil {
					return fmt.Errorf("seed record %d: %w", i, err)
				}
			}
			fmt.Printf("seeded %d sessions into %q\n", count, topic)
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory (defaults to the OS-specific application data directory)")
	cmd.Flags().String("topic", "shopping-sessions", "Source topic to seed")
	cmd.Flags().Int("count", 10, "Number of sessions to append")
	cmd.Flags().Int("partitions", 4, "Partition count when creating the topic")
	return cmd
}

func syntheticSession(sid string, rng *rand.Rand) map[string]any {
	loc := seedCities[rng.Intn(len(seedCities))]
	items := make([]map[string]any, 1+rng.Intn(4))
	for i := range items {
		items[i] = map[string]any{
			"product_code":     seedProducts[rng.Intn(len(seedProducts))],
			"quantity":         1 + rng.Intn(5),
			"in_shopping_cart": rng.Intn(2) == 0,
		}
	}
	return map[string]any{
		"session_id":      sid,
		"customer_number": int64(1000 + rng.Intn(9000)),
		"city":            loc.city,
		"country":         loc.country,
		"credit_limit":    float64(500 * (1 + rng.Intn(20))),
		"browse_history":  items,
	}
}
