package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	fx "github.com/robotalks/badge.go/pkg/framework"
	"github.com/robotalks/badge.go/pkg/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/badge/"

	irDevice  string
	irAddress uint
	irCommand uint
	irToggle  bool
)

func init() {
	if val := os.Getenv("BADGE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&irDevice, "ir", irDevice, "Send an IR frame through this device and exit.")
	flag.UintVar(&irAddress, "ir-addr", irAddress, "RC5 address of the IR frame.")
	flag.UintVar(&irCommand, "ir-cmd", irCommand, "RC5 command of the IR frame.")
	flag.BoolVar(&irToggle, "ir-toggle", irToggle, "Set the RC5 toggle bit.")
}

func sendIR(q *mqtt.Queue) {
	data, err := msgs.Encode(&msgs.IRTrigger{
		Address: uint32(irAddress),
		Command: uint32(irCommand),
		Toggle:  irToggle,
	})
	if err != nil {
		log.Fatalln(err)
	}
	token := q.PubWith(irDevice+"/"+mqtt.CommandTopic, data, 1, false)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		log.Fatalf("send IR: %v", token.Error())
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	if irDevice != "" {
		sendIR(q)
		return
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.MetaTopic) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(msgs.SerializableMessage).Serializable().String())
	}))

	runner := fx.NewRunner().HandleSignals()
	<-runner.Context.Done()
}
