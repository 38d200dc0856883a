package main

import (
	"fmt"
	"os"

	"github.com/make87-apps/ros2-rolling-publisher-template/msgs/std_msgs"
	"github.com/make87-apps/ros2-rolling-publisher-template/ros2"
	"github.com/make87-apps/ros2-rolling-publisher-template/topics"
)

func main() {
	node, err := ros2.NewNode("minimal_subscriber", os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
	defer node.Shutdown()
	logger := node.Logger()

	topic := topics.ResolveTopicName("INCOMING_MESSAGE", "topic")
	node.NewSubscriber(topic, std_msgs.MsgString, func(msg *std_msgs.String) {
		logger.Infof("I heard: '%s'", msg.Data)
	})

	node.Spin()
}
