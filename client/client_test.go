package client

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/transport"
	"github.com/tony23/pywbem/wbemerrors"
)

// scriptedTransport is a fake transporter returning one canned reply per
// call, in order, so client-package tests can exercise the engine without
// a live CIMOM.
type scriptedTransport struct {
	replies []string
	calls   int
}

func (s *scriptedTransport) Post(_ context.Context, _, _, _ string, body []byte) (*transport.Reply, error) {
	if s.calls >= len(s.replies) {
		panic("scriptedTransport: no more replies scripted")
	}
	reply := s.replies[s.calls]
	s.calls++
	h := http.Header{}
	h.Set("CIMOperation", "MethodResponse")
	return &transport.Reply{StatusCode: http.StatusOK, Header: h, Body: []byte(reply)}, nil
}

func newTestConnection(t *testing.T, replies ...string) (*Connection, *scriptedTransport) {
	t.Helper()
	conn, err := New(Config{
		URL:              "https://cimserver:5989",
		DefaultNamespace: "root/cimv2",
		Username:         "administrator",
		Password:         "password",
		StatsEnabled:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	fake := &scriptedTransport{replies: replies}
	conn.transporter = fake
	return conn, fake
}

const getInstanceReply = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0"><MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="GetInstance"><IRETURNVALUE>
<INSTANCE CLASSNAME="PyWBEM_Person">
<PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY>
<PROPERTY NAME="Address" TYPE="string"><VALUE>Fritz Town</VALUE></PROPERTY>
</INSTANCE>
</IRETURNVALUE></IMETHODRESPONSE></SIMPLERSP></MESSAGE></CIM>`

func errorReply(code int) string {
	return `<CIM CIMVERSION="2.0" DTDVERSION="2.0"><MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="GetInstance">
<ERROR CODE="` + strconv.Itoa(code) + `" DESCRIPTION="denied"/>
</IMETHODRESPONSE></SIMPLERSP></MESSAGE></CIM>`
}

func testPath(t *testing.T) *cim.InstanceName {
	t.Helper()
	path, err := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	if err != nil {
		t.Fatal(err)
	}
	path.WithKeybinding("Name", cim.String("Fritz"))
	return path
}

// TestGetInstanceHappyPath drives a GetInstance round trip end to end
// through the operation engine.
func TestGetInstanceHappyPath(t *testing.T) {
	conn, _ := newTestConnection(t, getInstanceReply)
	inst, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	name, _ := inst.Properties.Get("Name")
	addr, _ := inst.Properties.Get("Address")
	if name.Value.XMLText() != "Fritz" || addr.Value.XMLText() != "Fritz Town" {
		t.Errorf("unexpected instance: %+v", inst)
	}
}

// TestIdempotenceAdvancesMessageID verifies that calling
// GetInstance twice with identical inputs produces identical results and
// advances the Message-ID counter by exactly two.
func TestIdempotenceAdvancesMessageID(t *testing.T) {
	conn, _ := newTestConnection(t, getInstanceReply, getInstanceReply)
	path := testPath(t)

	before := conn.msgID.Current()
	inst1, err := conn.GetInstance(context.Background(), path, GetInstanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	inst2, err := conn.GetInstance(context.Background(), path, GetInstanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	after := conn.msgID.Current()

	if after-before != 2 {
		t.Errorf("expected Message-ID counter to advance by 2, advanced by %d", after-before)
	}
	if !inst1.Equal(inst2) {
		t.Errorf("identical GetInstance calls produced different results")
	}
}

// TestStatsRecordsRequestAndReplyLength verifies that, when enabled, the
// statistics record the exact request and reply body byte lengths.
func TestStatsRecordsRequestAndReplyLength(t *testing.T) {
	conn, _ := newTestConnection(t, getInstanceReply)
	_, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	stats := conn.Statistics()
	m, ok := stats["GetInstance"]
	if !ok {
		t.Fatal("expected GetInstance stats entry")
	}
	if m.Count != 1 {
		t.Errorf("expected Count 1, got %d", m.Count)
	}
	if m.ReplyLenSum != int64(len(getInstanceReply)) {
		t.Errorf("expected ReplyLenSum %d, got %d", len(getInstanceReply), m.ReplyLenSum)
	}
	if m.RequestLenSum <= 0 {
		t.Errorf("expected a positive RequestLenSum, got %d", m.RequestLenSum)
	}
}

// TestStatsDisabledLeavesCountersAtZero covers the stats-disabled case.
func TestStatsDisabledLeavesCountersAtZero(t *testing.T) {
	conn, err := New(Config{
		URL:              "https://cimserver:5989",
		DefaultNamespace: "root/cimv2",
		Username:         "administrator",
		Password:         "password",
	})
	if err != nil {
		t.Fatal(err)
	}
	conn.transporter = &scriptedTransport{replies: []string{getInstanceReply}}

	if _, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(conn.Statistics()) != 0 {
		t.Errorf("expected no stats entries when disabled, got %v", conn.Statistics())
	}
}

// TestErrorMappingIncrementsExceptionCount checks the CIMError mapping
// and that a raised error increments the exception counter.
func TestErrorMappingIncrementsExceptionCount(t *testing.T) {
	conn, _ := newTestConnection(t, errorReply(2))
	_, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{})
	var cimErr *wbemerrors.CIMError
	if err == nil {
		t.Fatal("expected CIMError")
	}
	if ce, ok := err.(*wbemerrors.CIMError); ok {
		cimErr = ce
	} else {
		t.Fatalf("expected *wbemerrors.CIMError, got %T", err)
	}
	if cimErr.Code != 2 || cimErr.Mnemonic() != "CIM_ERR_ACCESS_DENIED" {
		t.Errorf("unexpected CIMError: %+v", cimErr)
	}
	stats := conn.Statistics()["GetInstance"]
	if stats.ExceptionCount != 1 {
		t.Errorf("expected ExceptionCount 1, got %d", stats.ExceptionCount)
	}
}

const openEnumerateReplyEOS = `<CIM CIMVERSION="2.0" DTDVERSION="2.0"><MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="OpenEnumerateInstances"><IRETURNVALUE>
<VALUE.NAMEDINSTANCE>
<INSTANCENAME CLASSNAME="PyWBEM_Person"><KEYBINDING NAME="Name"><KEYVALUE TYPE="string">Fritz</KEYVALUE></KEYBINDING></INSTANCENAME>
<INSTANCE CLASSNAME="PyWBEM_Person"><PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY></INSTANCE>
</VALUE.NAMEDINSTANCE>
<ENDOFSEQUENCE/>
</IRETURNVALUE></IMETHODRESPONSE></SIMPLERSP></MESSAGE></CIM>`

// TestPullLifecycleEndOfSequence verifies that after
// OpenEnumerateInstances returns EndOfSequence=true, any further
// Pull/Close on that context fails locally without a transport call.
func TestPullLifecycleEndOfSequence(t *testing.T) {
	conn, fake := newTestConnection(t, openEnumerateReplyEOS)
	ec, result, err := conn.OpenEnumerateInstances(context.Background(), "", "PyWBEM_Person", EnumerationOptions{}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !result.EndOfSequence {
		t.Fatal("expected EndOfSequence=true")
	}
	if len(result.NamedInstances) != 1 {
		t.Fatalf("expected 1 named instance, got %d", len(result.NamedInstances))
	}

	callsBefore := fake.calls
	if _, err := ec.Pull(context.Background(), 10); err == nil {
		t.Fatal("expected Pull on a closed context to fail")
	}
	if err := ec.Close(context.Background()); err == nil {
		t.Fatal("expected Close on a closed context to fail")
	}
	if fake.calls != callsBefore {
		t.Errorf("Pull/Close on a closed context must not contact the transport; calls went from %d to %d", callsBefore, fake.calls)
	}
}

// TestReplayRecorderRoundTrip verifies that a YAMLRecorder's captured
// traffic can be replayed by a ReplayRecorder without ever invoking the
// live transporter.
func TestReplayRecorderRoundTrip(t *testing.T) {
	conn, _ := newTestConnection(t, getInstanceReply)
	rec := NewYAMLRecorder()
	conn.SetRecorder(rec)

	if _, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "cases.yml")
	if err := rec.Save(path); err != nil {
		t.Fatal(err)
	}

	replay, err := LoadReplayFile(path)
	if err != nil {
		t.Fatal(err)
	}

	conn2, err := New(Config{
		URL:              "https://cimserver:5989",
		DefaultNamespace: "root/cimv2",
		Username:         "administrator",
		Password:         "password",
	})
	if err != nil {
		t.Fatal(err)
	}
	conn2.SetRecorder(replay)

	inst, err := conn2.GetInstance(context.Background(), testPath(t), GetInstanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	name, _ := inst.Properties.Get("Name")
	if name.Value.XMLText() != "Fritz" {
		t.Errorf("replayed GetInstance returned unexpected instance: %+v", inst)
	}
	if replay.Remaining() != 0 {
		t.Errorf("expected replay file fully consumed, %d cases remaining", replay.Remaining())
	}
	if len(replay.Mismatches) != 0 {
		t.Errorf("unexpected replay mismatches: %v", replay.Mismatches)
	}
}

const openEnumerateReplyMore = `<CIM CIMVERSION="2.0" DTDVERSION="2.0"><MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="OpenEnumerateInstances"><IRETURNVALUE>
<VALUE.NAMEDINSTANCE>
<INSTANCENAME CLASSNAME="PyWBEM_Person"><KEYBINDING NAME="Name"><KEYVALUE TYPE="string">Fritz</KEYVALUE></KEYBINDING></INSTANCENAME>
<INSTANCE CLASSNAME="PyWBEM_Person"><PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY></INSTANCE>
</VALUE.NAMEDINSTANCE>
</IRETURNVALUE>
<IPARAMVALUE NAME="EnumerationContext"><VALUE>ctx-417</VALUE></IPARAMVALUE>
<IPARAMVALUE NAME="EndOfSequence"><VALUE>FALSE</VALUE></IPARAMVALUE>
</IMETHODRESPONSE></SIMPLERSP></MESSAGE></CIM>`

const pullReplyEOS = `<CIM CIMVERSION="2.0" DTDVERSION="2.0"><MESSAGE ID="2" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="PullInstancesWithPath"><IRETURNVALUE/>
<IPARAMVALUE NAME="EndOfSequence"><VALUE>TRUE</VALUE></IPARAMVALUE>
</IMETHODRESPONSE></SIMPLERSP></MESSAGE></CIM>`

// TestOpenEnumerationBlocksOtherOperations verifies that while a pull
// enumeration is open, any operation other than Pull/Close fails locally
// without a transport call, and that the opaque context string is
// preserved exactly as the server sent it.
func TestOpenEnumerationBlocksOtherOperations(t *testing.T) {
	conn, fake := newTestConnection(t, openEnumerateReplyMore, pullReplyEOS, getInstanceReply)

	ec, result, err := conn.OpenEnumerateInstances(context.Background(), "", "PyWBEM_Person", EnumerationOptions{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.EndOfSequence {
		t.Fatal("expected EndOfSequence=false on the first batch")
	}
	if ec.context != "ctx-417" {
		t.Errorf("expected the server's context string to be preserved, got %q", ec.context)
	}

	callsBefore := fake.calls
	_, err = conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{})
	var modelErr *wbemerrors.ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("expected ModelError for an operation during an open enumeration, got %v", err)
	}
	if fake.calls != callsBefore {
		t.Errorf("blocked operation must not contact the transport")
	}

	pulled, err := ec.Pull(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if !pulled.EndOfSequence {
		t.Fatal("expected EndOfSequence=true from the pull")
	}

	if _, err := conn.GetInstance(context.Background(), testPath(t), GetInstanceOptions{}); err != nil {
		t.Fatalf("operations must be permitted again once the enumeration closed: %v", err)
	}
}
