package main

import (
	"fmt"
	"os"
	"time"

	"github.com/make87-apps/ros2-rolling-publisher-template/msgs/std_msgs"
	"github.com/make87-apps/ros2-rolling-publisher-template/ros2"
	"github.com/make87-apps/ros2-rolling-publisher-template/topics"
)

func main() {
	node, err := ros2.NewNode("minimal_publisher", os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
	defer node.Shutdown()

	topic := topics.ResolveTopicName("OUTGOING_MESSAGE", "topic")
	pub := node.NewPublisher(topic, std_msgs.MsgString)
	logger := node.Logger()

	count := 0
	node.NewTimer(500*time.Millisecond, func() {
		var msg std_msgs.String
		msg.Data = fmt.Sprintf("Hello, world! %d", count)
		count++
		logger.Infof("Publishing: '%s'", msg.Data)
		pub.Publish(&msg)
	})

	node.Spin()
}
