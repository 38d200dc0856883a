package ros2

import (
	"os"
	"testing"
)

func TestDetermineHost(t *testing.T) {
	t.Setenv("ROS2_HOSTNAME", "")
	t.Setenv("ROS2_IP", "")
	os.Unsetenv("ROS2_HOSTNAME")
	os.Unsetenv("ROS2_IP")

	var host string
	var localOnly bool

	// ROS2_HOSTNAME: localhost, ROS2_IP: nil
	os.Setenv("ROS2_HOSTNAME", "localhost")
	host, localOnly = determineHost()
	if host != "localhost" {
		t.Error("ROS2_HOSTNAME is not addressed")
	}
	if localOnly != true {
		t.Errorf("localOnly flag is wrong for %s", host)
	}

	// ROS2_HOSTNAME: hostname.in.env.var, ROS2_IP: nil
	os.Setenv("ROS2_HOSTNAME", "hostname.in.env.var")
	host, localOnly = determineHost()
	if host != "hostname.in.env.var" {
		t.Error("ROS2_HOSTNAME is not addressed")
	}
	if localOnly != false {
		t.Errorf("localOnly flag is wrong for %s", host)
	}

	// ROS2_HOSTNAME: hostname.in.env.var, ROS2_IP: 1.2.3.4
	os.Setenv("ROS2_IP", "1.2.3.4")
	host, localOnly = determineHost()
	if host != "hostname.in.env.var" {
		t.Error("ROS2_HOSTNAME is not addressed when ROS2_IP is set")
	}
	if localOnly != false {
		t.Errorf("localOnly flag is wrong for %s", host)
	}

	// ROS2_HOSTNAME: nil, ROS2_IP: 1.2.3.4
	os.Unsetenv("ROS2_HOSTNAME")
	host, localOnly = determineHost()
	if host != "1.2.3.4" {
		t.Error("ROS2_IP is not addressed")
	}
	if localOnly != false {
		t.Errorf("localOnly flag is wrong for %s", host)
	}

	// ROS2_HOSTNAME: nil, ROS2_IP: 127.0.0.1
	os.Setenv("ROS2_IP", "127.0.0.1")
	host, localOnly = determineHost()
	if host != "127.0.0.1" {
		t.Error("ROS2_IP is not addressed")
	}
	if localOnly != true {
		t.Errorf("localOnly flag is wrong for %s", host)
	}
}
