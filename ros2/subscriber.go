package ros2

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// redialInterval is how often a subscriber retries peers it has no live
// connection to.
const redialInterval = 3 * time.Second

type messageEvent struct {
	bytes []byte
	event MessageEvent
}

// The subscription object runs in own goroutine (start).
// Do not access any properties from other goroutine.
type defaultSubscriber struct {
	topic            string
	msgType          MessageType
	peerList         []string
	peerListChan     chan []string
	msgChan          chan messageEvent
	callbacks        []interface{}
	addCallbackChan  chan interface{}
	shutdownChan     chan struct{}
	connections      map[string]chan struct{}
	disconnectedChan chan string
}

func newDefaultSubscriber(topic string, msgType MessageType, callback interface{}) *defaultSubscriber {
	sub := new(defaultSubscriber)
	sub.topic = topic
	sub.msgType = msgType
	sub.msgChan = make(chan messageEvent, 10)
	sub.peerListChan = make(chan []string, 10)
	sub.addCallbackChan = make(chan interface{}, 10)
	sub.shutdownChan = make(chan struct{}, 10)
	sub.disconnectedChan = make(chan string, 10)
	sub.connections = make(map[string]chan struct{})
	sub.callbacks = []interface{}{callback}
	return sub
}

func (sub *defaultSubscriber) start(wg *sync.WaitGroup, nodeID string, jobChan chan func(), logger *logrus.Entry) {
	logger.Debugf("Subscriber goroutine for %s started.", sub.topic)
	defer wg.Done()
	defer func() {
		logger.Debug(sub.topic, " : defaultSubscriber.start exit")
	}()
	redial := time.NewTicker(redialInterval)
	defer redial.Stop()
	for {
		select {
		case list := <-sub.peerListChan:
			logger.Debug(sub.topic, " : Receive peerListChan")
			deadPeers := peerListDifference(sub.peerList, list)
			newPeers := peerListDifference(list, sub.peerList)
			sub.peerList = list

			for _, peer := range deadPeers {
				if quitChan, ok := sub.connections[peer]; ok {
					quitChan <- struct{}{}
					delete(sub.connections, peer)
				}
			}
			for _, peer := range newPeers {
				sub.connectTo(peer, nodeID, logger)
			}
		case <-redial.C:
			for _, peer := range sub.peerList {
				if _, ok := sub.connections[peer]; !ok {
					logger.Debug(sub.topic, " : Redial ", peer)
					sub.connectTo(peer, nodeID, logger)
				}
			}
		case callback := <-sub.addCallbackChan:
			logger.Debug(sub.topic, " : Receive addCallbackChan")
			sub.callbacks = append(sub.callbacks, callback)
		case msgEvent := <-sub.msgChan:
			// Pop received message then bind callbacks and enqueue to the job channel.
			logger.Debug(sub.topic, " : Receive msgChan")
			callbacks := make([]interface{}, len(sub.callbacks))
			copy(callbacks, sub.callbacks)
			jobChan <- func() {
				m := sub.msgType.NewMessage()
				reader := bytes.NewReader(msgEvent.bytes)
				if err := m.Deserialize(reader); err != nil {
					logger.Error(sub.topic, " : ", err)
					return
				}
				args := []reflect.Value{reflect.ValueOf(m), reflect.ValueOf(msgEvent.event)}
				for _, callback := range callbacks {
					fun := reflect.ValueOf(callback)
					numArgsNeeded := fun.Type().NumIn()
					if numArgsNeeded <= 2 {
						fun.Call(args[0:numArgsNeeded])
					}
				}
			}
			logger.Debug(sub.topic, " : Callback job enqueued.")
		case peer := <-sub.disconnectedChan:
			logger.Debug(sub.topic, " : Connection lost to ", peer)
			delete(sub.connections, peer)
		case <-sub.shutdownChan:
			logger.Debug(sub.topic, " : Receive shutdownChan")
			for _, quitChan := range sub.connections {
				quitChan <- struct{}{}
			}
			return
		}
	}
}

// connectTo starts a connection goroutine for one peer. The peer stays in
// sub.connections until the goroutine reports it lost through
// disconnectedChan, which makes the redial tick try again.
func (sub *defaultSubscriber) connectTo(peer string, nodeID string, logger *logrus.Entry) {
	quitChan := make(chan struct{}, 10)
	sub.connections[peer] = quitChan
	go startRemotePublisherConn(logger,
		peer, sub.topic,
		sub.msgType.MD5Sum(),
		sub.msgType.Name(), nodeID,
		sub.msgChan,
		quitChan,
		sub.disconnectedChan)
}

func startRemotePublisherConn(logger *logrus.Entry,
	peer string, topic string, md5sum string,
	msgType string, nodeID string,
	msgChan chan messageEvent,
	quitChan chan struct{},
	disconnectedChan chan string) {
	logger.Debug(topic, " : startRemotePublisherConn()")

	defer func() {
		logger.Debug(topic, " : startRemotePublisherConn() exit")
	}()

	conn, err := net.Dial("tcp", peer)
	if err != nil {
		logger.Debug(topic, " : Failed to connect to ", peer)
		disconnectedChan <- peer
		return
	}
	defer conn.Close()

	// 1. Write connection header
	var headers []header
	headers = append(headers, header{"topic", topic})
	headers = append(headers, header{"md5sum", md5sum})
	headers = append(headers, header{"type", msgType})
	headers = append(headers, header{"callerid", nodeID})
	err = writeConnectionHeader(headers, conn)
	if err != nil {
		logger.Error(topic, " : Failed to write connection header.")
		disconnectedChan <- peer
		return
	}

	// 2. Read response header
	var resHeaders []header
	resHeaders, err = readConnectionHeader(conn)
	if err != nil {
		logger.Error(topic, " : Failed to read response header.")
		disconnectedChan <- peer
		return
	}
	resHeaderMap := make(map[string]string)
	for _, h := range resHeaders {
		resHeaderMap[h.key] = h.value
	}

	if errMsg, ok := resHeaderMap["error"]; ok {
		logger.Debug(topic, " : Peer ", peer, " refused connection: ", errMsg)
		disconnectedChan <- peer
		return
	}

	if resHeaderMap["type"] != msgType || resHeaderMap["md5sum"] != md5sum {
		logger.Error("Incompatible message type for ", topic, ": ", resHeaderMap["type"], ":", msgType, " ", resHeaderMap["md5sum"], ":", md5sum)
		disconnectedChan <- peer
		return
	}
	logger.Debug(topic, " : Start receiving messages...")
	event := MessageEvent{ // Event struct to be sent with each message.
		PublisherName:    resHeaderMap["callerid"],
		ConnectionHeader: resHeaderMap,
	}

	// 3. Start reading messages
	// Reads resume where the previous timeout left off so a slow frame
	// cannot desynchronize the stream.
	readingSize := true
	sizeBuf := make([]byte, 4)
	var buffer []byte
	filled := 0
	for {
		select {
		case <-quitChan:
			return
		default:
			conn.SetDeadline(time.Now().Add(1000 * time.Millisecond))
			if readingSize {
				n, err := io.ReadFull(conn, sizeBuf[filled:])
				filled += n
				if err != nil {
					if neterr, ok := err.(net.Error); ok && neterr.Timeout() {
						// Timed out
						continue
					} else {
						logger.Debug(topic, " : Failed to read a message size")
						disconnectedChan <- peer
						return
					}
				}
				msgSize := binary.LittleEndian.Uint32(sizeBuf)
				buffer = make([]byte, int(msgSize))
				readingSize = false
				filled = 0
			} else {
				n, err := io.ReadFull(conn, buffer[filled:])
				filled += n
				if err != nil {
					if neterr, ok := err.(net.Error); ok && neterr.Timeout() {
						// Timed out
						continue
					} else {
						logger.Debug(topic, " : Failed to read a message body")
						disconnectedChan <- peer
						return
					}
				}
				event.ReceiptTime = time.Now()
				msgChan <- messageEvent{bytes: buffer, event: event}
				readingSize = true
				filled = 0
			}
		}
	}
}

func (sub *defaultSubscriber) Shutdown() {
	sub.shutdownChan <- struct{}{}
}

func (sub *defaultSubscriber) GetNumPublishers() int {
	return len(sub.peerList)
}
