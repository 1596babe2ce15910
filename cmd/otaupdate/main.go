// Command otaupdate drives one OTA firmware update against a device's
// inactive partition, supervising the download alongside an MQTT poll loop
// that watches for a remote-cancel command, under one errgroup.Group —
// grounded on the teacher's cmd/mqtt-client/main.go supervision shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/golang-io/iotcore/httpclient"
	"github.com/golang-io/iotcore/internal/telemetry"
	"github.com/golang-io/iotcore/mqtt"
	"github.com/golang-io/iotcore/mqttpacket"
	"github.com/golang-io/iotcore/ota"
	"github.com/golang-io/iotcore/storage"
	"github.com/golang-io/iotcore/transport"
)

func main() {
	var (
		fwAddr      = flag.String("fw-addr", "127.0.0.1:8080", "firmware server host:port")
		fwPath      = flag.String("fw-path", "/firmware.bin", "firmware path on the server")
		fwSize      = flag.Uint("fw-size", 0, "firmware size in bytes")
		fwVersion   = flag.Uint("fw-version", 1, "firmware version")
		chunkSize   = flag.Uint("chunk-size", 1024, "download chunk size in bytes")
		partBase    = flag.Uint("partition-base", 0, "inactive partition base offset")
		partSize    = flag.Uint("partition-size", 1 << 20, "partition size in bytes")
		storageCap  = flag.Uint("storage-capacity", 2 << 20, "total storage capacity in bytes")
		mqttAddr    = flag.String("mqtt-addr", "127.0.0.1:1883", "MQTT broker host:port")
		cancelTopic = flag.String("cancel-topic", "ota/cancel", "MQTT topic that triggers cancellation")
		progressTopic = flag.String("progress-topic", "ota/progress", "MQTT topic for progress updates")
		metricsAddr = flag.String("metrics-addr", ":9100", "diagnostics/metrics HTTP listen address")
	)
	flag.Parse()

	telemetry.Register()
	go func() {
		if err := telemetry.Serve(*metricsAddr); err != nil {
			log.Printf("otaupdate: metrics server stopped: %v", err)
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	fwConn, err := net.Dial("tcp", *fwAddr)
	if err != nil {
		log.Fatalf("otaupdate: dial firmware server: %v", err)
	}
	httpClient := httpclient.New(transport.NewNetConn(fwConn))

	mqttConn, err := net.Dial("tcp", *mqttAddr)
	if err != nil {
		log.Fatalf("otaupdate: dial MQTT broker: %v", err)
	}
	mqttClient := mqtt.New(transport.NewNetConn(mqttConn), mqtt.ClientID("otaupdate"))
	if err := mqttClient.Connect(); err != nil {
		log.Fatalf("otaupdate: mqtt connect: %v", err)
	}
	if err := mqttClient.Subscribe(*cancelTopic, mqttpacket.QoS0); err != nil {
		log.Fatalf("otaupdate: mqtt subscribe: %v", err)
	}

	mem := storage.NewMemory(uint32(*storageCap))
	platform := ota.NewHooks(
		ota.Partition{Start: 0, Size: uint32(*partSize)},
		ota.Partition{Start: uint32(*partBase), Size: uint32(*partSize)},
	)
	publisher := ota.NewPublisher(mqttClient, *progressTopic)

	engine, err := ota.New(ota.Config{
		HTTP:             httpClient,
		Storage:          mem,
		Platform:         platform,
		BaseOffset:       uint32(*partBase),
		Descriptor:       ota.Descriptor{Version: uint32(*fwVersion), Size: uint32(*fwSize), URL: *fwPath},
		ChunkSize:        uint32(*chunkSize),
		EraseBeforeWrite: true,
		VerifyCRC32:      true,
		Host:             *fwAddr,
		Publisher:        publisher,
	})
	if err != nil {
		log.Fatalf("otaupdate: invalid OTA config: %v", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return engine.Run(ctx)
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			msg, err := mqttClient.Poll()
			if err != nil {
				log.Printf("otaupdate: mqtt poll: %v", err)
				continue
			}
			if msg != nil && msg.Topic == *cancelTopic {
				log.Printf("otaupdate: received cancel command")
				engine.Cancel()
				return nil
			}
		}
	})

	group.Go(func() error {
		defer stop()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-sig:
			return fmt.Errorf("got signal: %s", s)
		}
	})

	if err := group.Wait(); err != nil {
		log.Printf("otaupdate: run ended: %v", err)
	}
	if engine.State() == ota.StateCompleted {
		if err := engine.Activate(); err != nil {
			log.Fatalf("otaupdate: activate: %v", err)
		}
	}

	_ = httpClient.Close()
	_ = mqttClient.Close()
}
