// Package client implements the WBEM operation engine: a
// typed entry point per CIM intrinsic operation plus a generic extrinsic
// method invoker, namespace resolution, per-method statistics, the
// pull-enumeration state machine, and a recorder/replay seam for testing
// without a live CIMOM.
//
// # Quick Start
//
//	conn, err := client.New(client.Config{
//	    URL:              "https://cimserver:5989",
//	    DefaultNamespace: "root/cimv2",
//	    Username:         "administrator",
//	    Password:         "password",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	path, _ := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
//	path.WithKeybinding("Name", cim.String("Fritz"))
//	inst, err := conn.GetInstance(ctx, path, client.GetInstanceOptions{})
//
// A Connection is stateful and is not safe for concurrent
// operation invocations from multiple goroutines: callers seeking
// parallelism construct one Connection per goroutine. Within a Connection,
// operations are strictly serialized and the Message-ID counter is
// monotonic.
package client
