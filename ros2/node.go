package ros2

import (
	"encoding/json"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// *defaultNode implements Node interface
// a defaultNode instance must be accessed in user goroutine.
type defaultNode struct {
	name          string
	namespace     string
	qualifiedName string
	listener      net.Listener
	address       string
	hostname      string
	listenIP      string
	peers         []string
	subscribers   map[string]*defaultSubscriber
	publishers    sync.Map
	timers        []*wallTimer
	params        map[string]interface{}
	paramMutex    sync.RWMutex
	jobChan       chan func()
	interruptChan chan os.Signal
	logger        *logrus.Entry
	ok            bool
	okMutex       sync.RWMutex
	waitGroup     sync.WaitGroup
	nameResolver  *NameResolver
	nonRosArgs    []string
}

func newDefaultNode(name string, args []string) (*defaultNode, error) {
	node := new(defaultNode)

	namespace, nodeName, err := qualifyNodeName(name)
	if err != nil {
		return nil, err
	}

	remapping, params, specials, rest := processArguments(args)

	node.name = nodeName
	if value, ok := specials["__name"]; ok && value != "" {
		node.name = value
	}

	node.namespace = namespace
	if ns := os.Getenv("ROS2_NAMESPACE"); len(ns) > 0 {
		node.namespace = ns
	}
	if value, ok := specials["__ns"]; ok && value != "" {
		node.namespace = value
	}

	var onlyLocalhost bool
	node.hostname, onlyLocalhost = determineHost()
	if value, ok := specials["__hostname"]; ok && value != "" {
		node.hostname = value
		onlyLocalhost = (value == "localhost")
	} else if value, ok := specials["__ip"]; ok && value != "" {
		node.hostname = value
		onlyLocalhost = (value == "::1" || strings.HasPrefix(value, "127."))
	}
	if onlyLocalhost {
		node.listenIP = "127.0.0.1"
	} else {
		node.listenIP = "0.0.0.0"
	}

	// Peer publishers to subscribe from, merged from the environment and
	// the command line.
	node.peers = parsePeerList(os.Getenv("ROS2_PEERS"))
	if value, ok := specials["__peers"]; ok {
		node.peers = mergePeerLists(node.peers, parsePeerList(value))
	}

	node.nameResolver = newNameResolver(node.namespace, node.name, remapping)
	node.nonRosArgs = rest

	node.qualifiedName = node.nameResolver.qualifiedName
	node.subscribers = make(map[string]*defaultSubscriber)
	node.params = make(map[string]interface{})
	node.interruptChan = make(chan os.Signal, 1)
	node.ok = true

	node.logger = DefaultLogger().WithField("node", node.qualifiedName)
	logger := node.logger

	node.jobChan = make(chan func(), 100)

	// Parameters given as _key:=value arguments live in the node. Values
	// parse as JSON where possible and stay raw strings otherwise.
	for k, v := range params {
		var value interface{} = v
		if parsed, err := loadParamFromString(v); err == nil {
			value = parsed
		}
		node.params[node.nameResolver.resolve(PrivateNS+k)] = value
	}

	listenPort := os.Getenv("ROS2_PORT")
	if value, ok := specials["__port"]; ok && value != "" {
		listenPort = value
	}
	var listener net.Listener
	if len(listenPort) > 0 {
		if _, err := strconv.Atoi(listenPort); err != nil {
			return nil, errors.Wrapf(err, "invalid listen port %q", listenPort)
		}
		listener, err = net.Listen("tcp", net.JoinHostPort(node.listenIP, listenPort))
		if err != nil {
			return nil, errors.Wrapf(err, "listen on port %s", listenPort)
		}
	} else {
		listener, err = listenRandomPort(node.listenIP, 10)
		if err != nil {
			return nil, err
		}
	}
	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		// Not reached
		panic(err)
	}
	node.listener = listener
	node.address = net.JoinHostPort(node.hostname, port)
	logger.Debugf("Listening on %s", listener.Addr().String())

	// Install signal handler
	signal.Notify(node.interruptChan, os.Interrupt)
	go func() {
		if _, ok := <-node.interruptChan; !ok {
			return
		}
		logger.Info("Interrupted")
		node.okMutex.Lock()
		node.ok = false
		node.okMutex.Unlock()
	}()

	node.waitGroup.Add(1)
	go node.listenRemoteSubscriber()

	logger.Debugf("Started %s", node.qualifiedName)
	return node, nil
}

// listenRemoteSubscriber accepts inbound subscriber connections and hands
// each one to routeConnection.
func (node *defaultNode) listenRemoteSubscriber() {
	logger := node.logger
	defer func() {
		logger.Debug("defaultNode.listenRemoteSubscriber exit")
		node.waitGroup.Done()
	}()

	for {
		conn, err := node.listener.Accept()
		if err != nil {
			logger.Debugf("node.listener.Accept() failed: %v", err)
			return
		}
		logger.Debugf("Connected %s", conn.RemoteAddr().String())
		go node.routeConnection(conn)
	}
}

// routeConnection reads the connection header and passes the connection to
// the publisher of the requested topic. Unknown topics get an error header
// back before the connection closes.
func (node *defaultNode) routeConnection(conn net.Conn) {
	logger := node.logger
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	headers, err := readConnectionHeader(conn)
	if err != nil {
		logger.Errorf("Failed to read connection header: %v", err)
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})
	headerMap := make(map[string]string)
	for _, h := range headers {
		headerMap[h.key] = h.value
	}

	topic := headerMap["topic"]
	pub, ok := node.publishers.Load(topic)
	if !ok {
		logger.Debugf("Requested topic %s is not published here", topic)
		writeConnectionHeader([]header{{"error", "no publisher for topic " + topic}}, conn)
		conn.Close()
		return
	}
	pub.(*defaultPublisher).sessionChan <- newRemoteSubscriberSession(pub.(*defaultPublisher), conn, headerMap)
}

func (node *defaultNode) OK() bool {
	node.okMutex.RLock()
	ok := node.ok
	node.okMutex.RUnlock()
	return ok
}

func (node *defaultNode) Name() string {
	return node.name
}

// Address is where remote subscribers reach this node's publishers, as a
// host:port suitable for another node's peer list.
func (node *defaultNode) Address() string {
	return node.address
}

func (node *defaultNode) NewPublisher(topic string, msgType MessageType) Publisher {
	return node.NewPublisherWithCallbacks(topic, msgType, nil, nil)
}

func (node *defaultNode) NewPublisherWithCallbacks(topic string, msgType MessageType, connectCallback, disconnectCallback func(SingleSubscriberPublisher)) Publisher {
	name := node.nameResolver.resolve(topic)
	pub, ok := node.publishers.Load(name)
	if !ok {
		pub = newDefaultPublisher(node, name, msgType, connectCallback, disconnectCallback)
		node.publishers.Store(name, pub)
		node.waitGroup.Add(1)
		go pub.(*defaultPublisher).start(&node.waitGroup)
	}
	return pub.(*defaultPublisher)
}

// RemovePublisher shuts down and deletes an existing topic publisher.
func (node *defaultNode) RemovePublisher(topic string) {
	name := node.nameResolver.resolve(topic)
	if pub, ok := node.publishers.Load(name); ok {
		pub.(*defaultPublisher).Shutdown()
		node.publishers.Delete(name)
	}
}

func (node *defaultNode) NewSubscriber(topic string, msgType MessageType, callback interface{}) Subscriber {
	name := node.nameResolver.resolve(topic)
	sub, ok := node.subscribers[name]
	logger := node.logger
	if !ok {
		sub = newDefaultSubscriber(name, msgType, callback)
		node.subscribers[name] = sub

		logger.Debugf("Start subscriber goroutine for topic '%s'", sub.topic)
		node.waitGroup.Add(1)
		go sub.start(&node.waitGroup, node.qualifiedName, node.jobChan, logger)
		sub.peerListChan <- node.peers
		logger.Debugf("Update peer list for topic '%s'", sub.topic)
	} else {
		sub.addCallbackChan <- callback
	}
	return sub
}

// RemoveSubscriber shuts down and deletes an existing topic subscriber.
func (node *defaultNode) RemoveSubscriber(topic string) {
	name := node.nameResolver.resolve(topic)
	if sub, ok := node.subscribers[name]; ok {
		sub.Shutdown()
		delete(node.subscribers, name)
	}
}

func (node *defaultNode) NewTimer(period time.Duration, callback func()) Timer {
	timer := newWallTimer(period, callback, node.jobChan)
	node.timers = append(node.timers, timer)
	node.waitGroup.Add(1)
	go timer.run(&node.waitGroup, node.logger)
	return timer
}

func (node *defaultNode) SpinOnce() {
	timeoutChan := time.After(10 * time.Millisecond)
	select {
	case job := <-node.jobChan:
		job()
	case <-timeoutChan:
		break
	}
}

func (node *defaultNode) Spin() {
	logger := node.logger
	for node.OK() {
		timeoutChan := time.After(1000 * time.Millisecond)
		select {
		case job := <-node.jobChan:
			logger.Debug("Execute job")
			job()
		case <-timeoutChan:
			break
		}
	}
}

func (node *defaultNode) Shutdown() {
	node.logger.Debug("Shutting node down")
	node.okMutex.Lock()
	node.ok = false
	node.okMutex.Unlock()
	signal.Stop(node.interruptChan)
	close(node.interruptChan)
	node.logger.Debug("Shutdown subscribers")
	for _, s := range node.subscribers {
		s.Shutdown()
	}
	node.logger.Debug("Shutdown subscribers...done")
	node.logger.Debug("Shutdown publishers")
	node.publishers.Range(func(key interface{}, value interface{}) bool {
		value.(*defaultPublisher).Shutdown()
		return true
	})
	node.logger.Debug("Shutdown publishers...done")
	node.logger.Debug("Stop timers")
	for _, timer := range node.timers {
		timer.Stop()
	}
	node.logger.Debug("Stop timers...done")
	node.listener.Close()
	node.logger.Debug("Wait all goroutines")
	node.waitGroup.Wait()
	node.logger.Debug("Wait all goroutines...Done")
	node.logger.Debug("Shutting node down completed")
}

func (node *defaultNode) GetParam(key string) (interface{}, error) {
	name := node.nameResolver.resolve(key)
	node.paramMutex.RLock()
	defer node.paramMutex.RUnlock()
	if value, ok := node.params[name]; ok {
		return value, nil
	}
	return nil, errors.Errorf("no such parameter: %s", name)
}

func (node *defaultNode) SetParam(key string, value interface{}) error {
	name := node.nameResolver.resolve(key)
	node.paramMutex.Lock()
	defer node.paramMutex.Unlock()
	node.params[name] = value
	return nil
}

func (node *defaultNode) HasParam(key string) (bool, error) {
	name := node.nameResolver.resolve(key)
	node.paramMutex.RLock()
	defer node.paramMutex.RUnlock()
	_, ok := node.params[name]
	return ok, nil
}

func (node *defaultNode) DeleteParam(key string) error {
	name := node.nameResolver.resolve(key)
	node.paramMutex.Lock()
	defer node.paramMutex.Unlock()
	if _, ok := node.params[name]; !ok {
		return errors.Errorf("no such parameter: %s", name)
	}
	delete(node.params, name)
	return nil
}

func (node *defaultNode) Logger() *logrus.Entry {
	return node.logger
}

func (node *defaultNode) NonRosArgs() []string {
	return node.nonRosArgs
}

func loadParamFromString(s string) (interface{}, error) {
	decoder := json.NewDecoder(strings.NewReader(s))
	var value interface{}
	err := decoder.Decode(&value)
	if err != nil {
		return nil, err
	}
	return value, err
}
