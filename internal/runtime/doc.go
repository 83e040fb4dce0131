// Package runtime wires storage and the topic registry into a single-node
// instance backing the embedded stream backend. It exposes Open/Close, a
// basic health check, and helpers to open partition logs.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	meta, _ := rt.EnsureTopic("sessions", 4)
//	l, _ := rt.OpenLog(meta.Name, 0)
//	_, _ = l.Append(context.Background(), []eventlog.AppendRecord{{Payload: []byte("hello")}})
package runtime
