package client

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "sessionflow/internal/config"
	"sessionflow/internal/eventlog"
	"sessionflow/internal/runtime"
	pebblestore "sessionflow/internal/storage/pebble"
)

// NewTailCommand constructs the `tail` command: it prints the newest records
// of a topic from the embedded store, optionally following new appends.
func NewTailCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the newest records of an embedded topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			topic, _ := cmd.Flags().GetString("topic")
			partition, _ := cmd.Flags().GetInt("partition")
			limit, _ := cmd.Flags().GetInt("limit")
			follow, _ := cmd.Flags().GetBool("follow")

			if dataDir == "" {
				dataDir = cfgpkg.DefaultDataDir()
			}
			rt, err := runtime.Open(runtime.Options{
				DataDir: filepath.Join(dataDir, "store"),
				Fsync:   pebblestore.FsyncModeNever,
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			meta, ok := rt.TopicMeta(topic)
			if !ok {
				return fmt.Errorf("unknown topic %q", topic)
			}
			parts := []uint32{uint32(partition)}
			if partition < 0 {
				parts = parts[:0]
				for p := 0; p < meta.Partitions; p++ {
					parts = append(parts, uint32(p))
				}
			} else if partition >= meta.Partitions {
				return fmt.Errorf("partition %d out of range (topic has %d)", partition, meta.Partitions)
			}

			logs := make(map[uint32]*eventlog.Log, len(parts))
			next := make(map[uint32]uint64, len(parts))
			for _, p := range parts {
				lg, err := rt.OpenLog(topic, p)
				if err != nil {
					return err
				}
				logs[p] = lg
				start := lg.FirstRetained()
				if last := lg.LastSeq(); last >= uint64(limit) && last-uint64(limit)+1 > start {
					start = last - uint64(limit) + 1
				}
				next[p] = start
			}

			for {
				printed := 0
				for _, p := range parts {
					items, n, err := logs[p].ReadFrom(next[p], limit)
					if err != nil {
						return err
					}
					next[p] = n
					for _, it := range items {
						fmt.Printf("p=%d seq=%d %s\n", p, it.Seq, it.Payload)
						printed++
					}
				}
				if !follow {
					return nil
				}
				if printed == 0 {
					// Block on the first partition; a short timeout keeps
					// the other partitions polled.
					logs[parts[0]].WaitForAppend(500 * time.Millisecond)
				}
			}
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory (defaults to the OS-specific application data directory)")
	cmd.Flags().String("topic", "shopping-sessions", "Topic to tail")
	cmd.Flags().Int("partition", -1, "Partition to tail (-1 for all)")
	cmd.Flags().Int("limit", 10, "Records per partition to print initially")
	cmd.Flags().Bool("follow", false, "Keep printing new records as they arrive")
	return cmd
}
