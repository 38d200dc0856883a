package ros2

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

type testMsgType struct{}

func (t *testMsgType) Text() string {
	return "string data\n"
}

func (t *testMsgType) Name() string {
	return "test_msgs/Chatter"
}

func (t *testMsgType) MD5Sum() string {
	return "0123456789abcdef0123456789abcdef"
}

func (t *testMsgType) NewMessage() Message {
	return new(testMessage)
}

var msgChatter = new(testMsgType)

type testMessage struct {
	Data string
}

func (m *testMessage) Type() MessageType {
	return msgChatter
}

func (m *testMessage) Serialize(buf *bytes.Buffer) error {
	binary.Write(buf, binary.LittleEndian, uint32(len([]byte(m.Data))))
	buf.Write([]byte(m.Data))
	return nil
}

func (m *testMessage) Deserialize(buf *bytes.Reader) error {
	var size uint32
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return err
	}
	data := make([]byte, int(size))
	if err := binary.Read(buf, binary.LittleEndian, data); err != nil {
		return err
	}
	m.Data = string(data)
	return nil
}

func TestPublishSubscribe(t *testing.T) {
	clearNodeEnv(t)
	talker, err := newDefaultNode("talker", []string{"__hostname:=localhost"})
	if err != nil {
		t.Fatal(err)
	}
	defer talker.Shutdown()

	connected := make(chan string, 10)
	pub := talker.NewPublisherWithCallbacks("/chatter", msgChatter,
		func(ssp SingleSubscriberPublisher) {
			connected <- ssp.GetSubscriberName()
		}, nil)

	subArgs := []string{"__hostname:=localhost", "__peers:=" + talker.Address()}
	listener, err := newDefaultNode("listener", subArgs)
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Shutdown()

	received := make(chan string, 10)
	listener.NewSubscriber("/chatter", msgChatter, func(msg *testMessage) {
		received <- msg.Data
	})

	// Publish until the message makes the round trip; the subscriber side
	// needs a few spins to connect first.
	deadline := time.Now().Add(15 * time.Second)
	var got string
waitMessage:
	for {
		if time.Now().After(deadline) {
			t.Fatal("no message received")
		}
		pub.Publish(&testMessage{Data: "hello there"})
		listener.SpinOnce()
		select {
		case got = <-received:
			break waitMessage
		default:
		}
	}
	if got != "hello there" {
		t.Error(got)
	}

	select {
	case name := <-connected:
		if name != "/listener" {
			t.Error(name)
		}
	case <-time.After(5 * time.Second):
		t.Error("connect callback never fired")
	}

	// A second callback on the same topic receives the message event.
	events := make(chan MessageEvent, 10)
	listener.NewSubscriber("/chatter", msgChatter, func(msg *testMessage, event MessageEvent) {
		events <- event
	})
waitEvent:
	for {
		if time.Now().After(deadline) {
			t.Fatal("no message event received")
		}
		pub.Publish(&testMessage{Data: "hello there"})
		listener.SpinOnce()
		select {
		case event := <-events:
			if event.PublisherName != "/talker" {
				t.Error(event.PublisherName)
			}
			if event.ConnectionHeader["type"] != "test_msgs/Chatter" {
				t.Error(event.ConnectionHeader)
			}
			if event.ReceiptTime.IsZero() {
				t.Fail()
			}
			break waitEvent
		case <-received:
		default:
		}
	}
}

func TestRouterRejectsUnknownTopic(t *testing.T) {
	clearNodeEnv(t)
	node, err := newDefaultNode("router_node", []string{"__hostname:=localhost"})
	if err != nil {
		t.Fatal(err)
	}
	defer node.Shutdown()

	conn, err := net.Dial("tcp", node.Address())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	request := []header{
		{"topic", "/nowhere"},
		{"md5sum", "*"},
		{"type", "*"},
		{"callerid", "/probe"},
	}
	if err := writeConnectionHeader(request, conn); err != nil {
		t.Error(err)
	}
	response, err := readConnectionHeader(conn)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range response {
		if h.key == "error" {
			found = true
		}
	}
	if !found {
		t.Error(response)
	}
}

func TestWallTimer(t *testing.T) {
	clearNodeEnv(t)
	node, err := newDefaultNode("timer_node", []string{"__hostname:=localhost"})
	if err != nil {
		t.Fatal(err)
	}
	defer node.Shutdown()

	fired := make(chan struct{}, 10)
	timer := node.NewTimer(10*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	deadline := time.Now().Add(10 * time.Second)
	count := 0
	for count < 3 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		node.SpinOnce()
		select {
		case <-fired:
			count++
		default:
		}
	}
	timer.Reset(5 * time.Millisecond)
	timer.Stop()
}

func TestRemovePublisherSubscriber(t *testing.T) {
	clearNodeEnv(t)
	node, err := newDefaultNode("cleanup_node", []string{"__hostname:=localhost"})
	if err != nil {
		t.Fatal(err)
	}
	defer node.Shutdown()

	node.NewPublisher("/out", msgChatter)
	node.NewSubscriber("/in", msgChatter, func() {})

	node.RemovePublisher("/out")
	node.RemoveSubscriber("/in")

	if _, ok := node.publishers.Load("/out"); ok {
		t.Fail()
	}
	if _, ok := node.subscribers["/in"]; ok {
		t.Fail()
	}
}
