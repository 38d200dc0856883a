package ros2

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"
)

func determineHost() (string, bool) {
	// If the user set ROS2_HOSTNAME, use it as is
	if hostname, ok := os.LookupEnv("ROS2_HOSTNAME"); ok {
		return hostname, (hostname == "localhost")
	}

	// If the user set ROS2_IP, use it as is
	if ip, ok := os.LookupEnv("ROS2_IP"); ok {
		return ip, (ip == "::1" || strings.HasPrefix(ip, "127."))
	}

	// Try using the hostname
	if osHostname, err := os.Hostname(); err == nil && osHostname != "localhost" {
		return osHostname, false
	}

	// Fall back on the interface IP
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				return ipnet.IP.String(), false
			}
		}
	}
	// Fall back to the loopback IP
	return "127.0.0.1", true
}

func listenRandomPort(address string, trialLimit int) (net.Listener, error) {
	var listener net.Listener
	var err error
	numTrial := 0
	for numTrial < trialLimit {
		port := 1024 + rand.Intn(65535-1024)
		addr := fmt.Sprintf("%s:%d", address, port)
		listener, err = net.Listen("tcp", addr)
		if err == nil {
			return listener, nil
		}
		numTrial++
	}
	return nil, fmt.Errorf("listenRandomPort exceeds trial limit")
}
