// Package pywbem is a WBEM client library: it invokes CIM operations
// against a remote CIMOM over the CIM-XML protocol defined by DMTF
// DSP0200 (operations over HTTP) and DSP0201 (XML representation of CIM).
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/      Operation engine: typed intrinsics,       │
//	│               pull enumeration, statistics, recorder    │
//	├─────────────────────────────────────────────────────────┤
//	│  xmlcodec/    CIM-XML encoder/decoder                   │
//	├─────────────────────────────────────────────────────────┤
//	│  transport/   HTTP POST with CIM headers, timeouts      │
//	│  auth/        Basic and Digest authentication           │
//	├─────────────────────────────────────────────────────────┤
//	│  cim/         Typed CIM object model                    │
//	│  wbemerrors/  Error taxonomy (CIMError, transport, ...) │
//	└─────────────────────────────────────────────────────────┘
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
//	path, _ := cim.NewInstanceName("CIM_ComputerSystem", "root/cimv2")
//	path.WithKeybinding("Name", cim.String("server01"))
//	inst, err := conn.GetInstance(ctx, path, client.GetInstanceOptions{})
package pywbem
