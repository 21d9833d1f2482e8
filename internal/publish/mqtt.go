// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gitlab.com/postmarketOS/gnss_fix/internal/config"
	"gitlab.com/postmarketOS/gnss_fix/internal/nmea"
)

const publishTimeout = 5 * time.Second

// mqttClient is the part of mqtt.Client used for publishing.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each fix as a JSON message on one topic.
type MQTT struct {
	client   mqttClient
	topic    string
	qos      byte
	retained bool
	log      logrus.FieldLogger
}

// DialMQTT connects to the configured broker. The client id gets a random
// suffix so several daemons can share a broker.
func DialMQTT(conf config.MQTTConfig, log logrus.FieldLogger) (*MQTT, error) {
	clientID := fmt.Sprintf("%s-%s", conf.ClientID, uuid.NewString()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(conf.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish.DialMQTT(): %w", token.Error())
	}
	log.WithFields(logrus.Fields{
		"broker":    conf.Broker,
		"client_id": clientID,
		"topic":     conf.Topic,
	}).Info("connected to MQTT broker")

	return newMQTT(client, conf, log), nil
}

func newMQTT(client mqttClient, conf config.MQTTConfig, log logrus.FieldLogger) *MQTT {
	return &MQTT{
		client:   client,
		topic:    conf.Topic,
		qos:      byte(conf.QoS),
		retained: conf.Retained,
		log:      log,
	}
}

func (m *MQTT) Publish(fix nmea.Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("publish.MQTT.Publish(): %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, m.retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish.MQTT.Publish(): timed out after %s", publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish.MQTT.Publish(): %w", err)
	}
	m.log.WithField("topic", m.topic).Debugf("published fix %s", fix.Format)
	return nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
