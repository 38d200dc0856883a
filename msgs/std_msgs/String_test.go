package std_msgs

import (
	"bytes"
	"testing"

	"github.com/make87-apps/ros2-rolling-publisher-template/ros2"
)

func TestStringSerialize(t *testing.T) {
	msg := String{Data: "abc"}
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		t.Error(err)
	}
	want := []byte{3, 0, 0, 0, 'a', 'b', 'c'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Error(buf.Bytes())
	}

	decoded := MsgString.NewMessage().(*String)
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Error(err)
	}
	if decoded.Data != "abc" {
		t.Error(decoded.Data)
	}
}

func TestStringType(t *testing.T) {
	if MsgString.Name() != "std_msgs/String" {
		t.Error(MsgString.Name())
	}
	if MsgString.MD5Sum() != "992ce8a1687cec8c8bd883ec73ca41d1" {
		t.Error(MsgString.MD5Sum())
	}
	var msg String
	if msg.Type() != ros2.MessageType(MsgString) {
		t.Fail()
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	if MsgHeader.MD5Sum() != "2176decaecbce78abc3b96ef049fabed" {
		t.Error(MsgHeader.MD5Sum())
	}

	msg := Header{Seq: 7, Stamp: ros2.NewTime(100, 200), FrameId: "base_link"}
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		t.Error(err)
	}

	decoded := MsgHeader.NewMessage().(*Header)
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Error(err)
	}
	if decoded.Seq != 7 || decoded.FrameId != "base_link" {
		t.Error(decoded)
	}
	if decoded.Stamp.Sec != 100 || decoded.Stamp.NSec != 200 {
		t.Error(decoded.Stamp)
	}
}
