package ros2

import (
	"bytes"
	"container/list"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type remoteSubscriberSessionError struct {
	session *remoteSubscriberSession
	err     error
}

func (e *remoteSubscriberSessionError) Error() string {
	return fmt.Sprintf("remoteSubscriberSession %v error: %v", e.session, e.err)
}

// defaultPublisher owns one topic. The node's listener routes inbound
// subscriber connections here through sessionChan after reading their
// connection header.
type defaultPublisher struct {
	node               *defaultNode
	topic              string
	msgType            MessageType
	msgChan            chan []byte
	shutdownChan       chan struct{}
	sessions           *list.List
	sessionChan        chan *remoteSubscriberSession
	sessionErrorChan   chan error
	connectCallback    func(SingleSubscriberPublisher)
	disconnectCallback func(SingleSubscriberPublisher)
}

func newDefaultPublisher(node *defaultNode,
	topic string, msgType MessageType,
	connectCallback, disconnectCallback func(SingleSubscriberPublisher)) *defaultPublisher {
	pub := new(defaultPublisher)
	pub.node = node
	pub.topic = topic
	pub.msgType = msgType
	pub.shutdownChan = make(chan struct{}, 10)
	pub.msgChan = make(chan []byte, 10)
	pub.sessionChan = make(chan *remoteSubscriberSession, 10)
	pub.sessionErrorChan = make(chan error, 10)
	pub.sessions = list.New()
	pub.connectCallback = connectCallback
	pub.disconnectCallback = disconnectCallback
	return pub
}

func (pub *defaultPublisher) start(wg *sync.WaitGroup) {
	logger := pub.node.logger
	logger.Debugf("Publisher goroutine for %s started.", pub.topic)
	defer func() {
		logger.Debug("defaultPublisher.start exit")
		wg.Done()
	}()

	for {
		select {
		case msg := <-pub.msgChan:
			for e := pub.sessions.Front(); e != nil; e = e.Next() {
				session := e.Value.(*remoteSubscriberSession)
				session.msgChan <- msg
			}
		case s := <-pub.sessionChan:
			pub.sessions.PushBack(s)
			go s.start()
		case err := <-pub.sessionErrorChan:
			logger.Debug(err)
			if sessionError, ok := err.(*remoteSubscriberSessionError); ok {
				for e := pub.sessions.Front(); e != nil; e = e.Next() {
					if e.Value == sessionError.session {
						pub.sessions.Remove(e)
						break
					}
				}
			}
		case <-pub.shutdownChan:
			logger.Debug("defaultPublisher.start Receive shutdownChan")
			for e := pub.sessions.Front(); e != nil; e = e.Next() {
				session := e.Value.(*remoteSubscriberSession)
				session.quitChan <- struct{}{}
			}
			pub.sessions.Init() // Clear all sessions
			return
		}
	}
}

func (pub *defaultPublisher) Publish(msg Message) {
	var buf bytes.Buffer
	_ = msg.Serialize(&buf)
	pub.msgChan <- buf.Bytes()
}

func (pub *defaultPublisher) Shutdown() {
	pub.shutdownChan <- struct{}{}
}

// remoteSubscriberSession streams messages to one connected subscriber.
// The connection header has already been read by the node's router.
type remoteSubscriberSession struct {
	conn               net.Conn
	nodeID             string
	topic              string
	typeText           string
	md5sum             string
	typeName           string
	requestHeaders     map[string]string
	quitChan           chan struct{}
	msgChan            chan []byte
	errorChan          chan error
	logger             *logrus.Entry
	connectCallback    func(SingleSubscriberPublisher)
	disconnectCallback func(SingleSubscriberPublisher)
}

func newRemoteSubscriberSession(pub *defaultPublisher, conn net.Conn, requestHeaders map[string]string) *remoteSubscriberSession {
	session := new(remoteSubscriberSession)
	session.conn = conn
	session.nodeID = pub.node.qualifiedName
	session.topic = pub.topic
	session.typeText = pub.msgType.Text()
	session.md5sum = pub.msgType.MD5Sum()
	session.typeName = pub.msgType.Name()
	session.requestHeaders = requestHeaders
	session.quitChan = make(chan struct{}, 10)
	session.msgChan = make(chan []byte, 10)
	session.errorChan = pub.sessionErrorChan
	session.logger = pub.node.logger
	session.connectCallback = pub.connectCallback
	session.disconnectCallback = pub.disconnectCallback
	return session
}

type singleSubPub struct {
	subName string
	topic   string
	msgChan chan []byte
}

func (ssp *singleSubPub) Publish(msg Message) {
	var buf bytes.Buffer
	_ = msg.Serialize(&buf)
	ssp.msgChan <- buf.Bytes()
}

func (ssp *singleSubPub) GetSubscriberName() string {
	return ssp.subName
}

func (ssp *singleSubPub) GetTopic() string {
	return ssp.topic
}

func (session *remoteSubscriberSession) start() {
	logger := session.logger
	logger.Debug("remoteSubscriberSession.start enter")

	ssp := &singleSubPub{
		subName: session.requestHeaders["callerid"],
		topic:   session.topic,
		msgChan: session.msgChan,
	}

	defer session.conn.Close()
	defer func() {
		logger.Debug("remoteSubscriberSession.start exit")

		if session.disconnectCallback != nil {
			session.disconnectCallback(ssp)
		}
	}()
	defer func() {
		if err := recover(); err != nil {
			if e, ok := err.(error); ok {
				session.errorChan <- &remoteSubscriberSessionError{session, e}
			} else {
				e = fmt.Errorf("unknown error value")
				session.errorChan <- &remoteSubscriberSessionError{session, e}
			}
		} else {
			e := fmt.Errorf("normal exit")
			session.errorChan <- &remoteSubscriberSessionError{session, e}
		}
	}()

	if session.requestHeaders["type"] != session.typeName && session.requestHeaders["type"] != "*" {
		logger.Errorf("incompatible message type: does not match for topic %s: %s vs %s",
			session.topic, session.typeName, session.requestHeaders["type"])
		return
	}

	if session.requestHeaders["md5sum"] != session.md5sum && session.requestHeaders["md5sum"] != "*" {
		logger.Errorf("incompatible message md5: does not match for topic %s: %s vs %s",
			session.topic, session.md5sum, session.requestHeaders["md5sum"])
		return
	}

	if session.connectCallback != nil {
		go session.connectCallback(ssp)
	}

	// Return response header
	var resHeaders []header
	resHeaders = append(resHeaders, header{"message_definition", session.typeText})
	resHeaders = append(resHeaders, header{"callerid", session.nodeID})
	resHeaders = append(resHeaders, header{"latching", "0"})
	resHeaders = append(resHeaders, header{"md5sum", session.md5sum})
	resHeaders = append(resHeaders, header{"topic", session.topic})
	resHeaders = append(resHeaders, header{"type", session.typeName})
	err := writeConnectionHeader(resHeaders, session.conn)
	if err != nil {
		logger.Error("failed to write response header")
		return
	}

	// Start sending messages
	logger.Debug("Start sending messages...")
	queueMaxSize := 100
	queue := make(chan []byte, queueMaxSize)
	for {
		select {
		case msg := <-session.msgChan:
			if len(queue) == queueMaxSize {
				<-queue
			}
			queue <- msg

		case <-session.quitChan:
			logger.Debug("Receive quitChan")
			return

		case msg := <-queue:
			// A frame must go out whole or the session dies; resuming after
			// a partial write would desynchronize the stream.
			session.conn.SetDeadline(time.Now().Add(10 * time.Second))
			size := uint32(len(msg))
			if err := binary.Write(session.conn, binary.LittleEndian, size); err != nil {
				logger.Debug(err)
				return
			}
			if _, err := session.conn.Write(msg); err != nil {
				logger.Debug(err)
				return
			}
		}
	}
}
