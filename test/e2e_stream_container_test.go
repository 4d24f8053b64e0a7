package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tbrossard/evtwin/app"
	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/core/twin"
	"github.com/tbrossard/evtwin/infra/mqtt"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", broker, err)
		t.Skip("Mosquitto not ready after retries")
	}
	return cont, broker
}

// End-to-end: a live session streams snapshots over a real broker and
// announces completion with the export path.
func TestLiveStreamWithMQTTContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	mqttCfg := mqtt.Config{Broker: broker, ClientID: "evtwin-test", QoS: 1}
	mqttCfg.SetDefaults()

	// Viewer side: a raw client collecting telemetry and the completion
	// event, the way a dashboard would.
	viewer := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("viewer"))
	if token := viewer.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("viewer connect: %v", token.Error())
	}
	defer viewer.Disconnect(100)

	var mu sync.Mutex
	var snaps []model.TelemetrySnapshot
	if token := viewer.Subscribe(mqttCfg.TelemetryTopic, 1, func(_ paho.Client, m paho.Message) {
		var snap model.TelemetrySnapshot
		if err := json.Unmarshal(m.Payload(), &snap); err != nil {
			t.Errorf("decode snapshot: %v", err)
			return
		}
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe telemetry: %v", token.Error())
	}
	complete := make(chan mqtt.CompleteEvent, 1)
	if token := viewer.Subscribe(mqttCfg.CompleteTopic, 1, func(_ paho.Client, m paho.Message) {
		var ev mqtt.CompleteEvent
		if err := json.Unmarshal(m.Payload(), &ev); err != nil {
			t.Errorf("decode completion: %v", err)
			return
		}
		complete <- ev
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe completion: %v", token.Error())
	}

	// Service side, wired like app.Service but with a short test scenario.
	reg := scenario.NewRegistry()
	reg.MustRegister(scenario.Scenario{
		Name:      "lap",
		DurationS: 2,
		Inputs:    func(float64) scenario.ControlInput { return scenario.ControlInput{ThrottlePct: 60} },
	})
	twinCfg := twin.Config{
		Powertrain: twin.PowertrainConfig{MaxPowerKW: 150, MaxTorqueNm: 310, Efficiency: 0.95},
		Battery:    twin.BatteryConfig{CapacityKWh: 75, NominalVoltage: 400, InitialSoC: 0.8},
		Vehicle:    twin.VehicleConfig{MassKg: 1800, DragCoefficient: 0.28, FrontalAreaM2: 2.3, RollingResistance: 0.015},
	}
	sess := app.NewSession(twinCfg, reg, app.SessionConfig{
		TimeStepS:   0.1,
		LogInterval: 1,
		Cadence:     10 * time.Millisecond,
		OutputDir:   t.TempDir(),
		Seed:        1,
	}, nil, nil)
	defer sess.Close()

	pub, err := mqtt.NewStreamPublisher(mqttCfg)
	if err != nil {
		t.Fatalf("stream publisher: %v", err)
	}
	defer pub.Close()

	sess.OnComplete(func(res app.RunResult) {
		_ = pub.PublishComplete(mqtt.CompleteEvent{
			RunID:      res.RunID,
			Scenario:   res.Scenario,
			ExportPath: res.ExportPath,
			Summary:    res.Summary,
		})
	})
	sub := sess.Subscribe()
	go func() {
		for snap := range sub {
			_ = pub.PublishSnapshot(snap)
		}
	}()

	// Control side: start the run the way a dashboard would.
	if err := pub.SubscribeControl(func(cm mqtt.ControlMessage) {
		if cm.Command == mqtt.CommandStart {
			if _, err := sess.Start(cm.Scenario); err != nil {
				t.Errorf("start: %v", err)
			}
		}
	}); err != nil {
		t.Fatalf("subscribe control: %v", err)
	}
	payload, _ := json.Marshal(mqtt.ControlMessage{Command: mqtt.CommandStart, Scenario: "lap"})
	if token := viewer.Publish(mqttCfg.ControlTopic, 1, false, payload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish control: %v", token.Error())
	}

	var ev mqtt.CompleteEvent
	select {
	case ev = <-complete:
	case <-time.After(30 * time.Second):
		t.Fatal("no completion event")
	}
	if ev.Scenario != "lap" || ev.RunID == "" {
		t.Fatalf("unexpected completion event: %+v", ev)
	}
	if ev.Summary.Snapshots != 20 {
		t.Fatalf("expected 20 snapshots in summary, got %d", ev.Summary.Snapshots)
	}
	if _, err := os.Stat(ev.ExportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	mu.Lock()
	streamed := len(snaps)
	mu.Unlock()
	if streamed == 0 {
		t.Fatal("no snapshots streamed")
	}
}
