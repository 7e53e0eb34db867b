package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	lock      sync.Mutex
	connected bool
	published []published
	handlers  map[string]paho.MessageHandler
	unsubs    []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]paho.MessageHandler)}
}

func (c *fakeClient) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() paho.Token {
	c.lock.Lock()
	c.connected = true
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.lock.Lock()
	c.connected = false
	c.lock.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	data, _ := payload.([]byte)
	c.published = append(c.published, published{topic, qos, retained, data})
	return &paho.DummyToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.handlers[topic] = callback
	return &paho.DummyToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, topic := range topics {
		delete(c.handlers, topic)
		c.unsubs = append(c.unsubs, topic)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) AddRoute(topic string, callback paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

func (c *fakeClient) subscribed(filter string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.handlers[filter]
	return ok
}

// deliver sends a message to the handler subscribed with the filter.
func (c *fakeClient) deliver(filter, topic string, payload []byte) {
	c.lock.Lock()
	h := c.handlers[filter]
	c.lock.Unlock()
	if h != nil {
		h(c, &fakeMessage{topic: topic, payload: payload})
	}
}

func (c *fakeClient) publishes() []published {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]published(nil), c.published...)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
