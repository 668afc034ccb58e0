package ap

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/espwifi/wifid/internal/config"
	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/log"
	"github.com/espwifi/wifid/internal/wifi"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

type codecFunc func(ctx context.Context, p dispatch.Payload) error

func (f codecFunc) Execute(ctx context.Context, p dispatch.Payload) error { return f(ctx, p) }

var testTimeouts = config.TimeoutsConfig{
	Command: 1 * time.Second,
	Persist: 10 * time.Second,
}

func newTestClient(t *testing.T, codec dispatch.Codec) (*Client, *dispatch.Dispatcher) {
	t.Helper()

	d := dispatch.New(codec, dispatch.Config{QueueDepth: 8}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = d.Start(ctx) }()
	<-d.Ready()

	return NewClient(d, testTimeouts), d
}

func TestValidatorBoundaries(t *testing.T) {
	var calls atomic.Int32
	c, d := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		calls.Add(1)
		return nil
	}))

	validConfig := wifi.APConfig{
		SSID:        "NET1",
		Passphrase:  "password123",
		Channel:     6,
		Encryption:  wifi.EncryptionWPA2PSK,
		MaxStations: 4,
	}

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "nil addrs output",
			call: func() error { return c.Addrs(nil) },
		},
		{
			name: "zero IP on set",
			call: func() error { return c.SetAddrs(wifi.IPv4{}, nil, nil) },
		},
		{
			name: "nil MAC output",
			call: func() error { return c.MAC(nil) },
		},
		{
			name: "zero MAC on set",
			call: func() error { return c.SetMAC(wifi.MAC{}) },
		},
		{
			name: "multicast bit set in AP MAC",
			call: func() error { return c.SetMAC(wifi.MAC{0x01, 0x1a, 0xfe, 0x34, 0xdf, 0xa4}) },
		},
		{
			name: "empty SSID",
			call: func() error {
				cfg := validConfig
				cfg.SSID = ""
				return c.Configure(cfg)
			},
		},
		{
			name: "passphrase longer than 64",
			call: func() error {
				cfg := validConfig
				for len(cfg.Passphrase) <= 64 {
					cfg.Passphrase += "passphrase"
				}
				return c.Configure(cfg)
			},
		},
		{
			name: "unsupported encryption mode",
			call: func() error {
				cfg := validConfig
				cfg.Encryption = wifi.Encryption(1) // WEP slot, not supported
				return c.Configure(cfg)
			},
		},
		{
			name: "channel above 128",
			call: func() error {
				cfg := validConfig
				cfg.Channel = 129
				return c.Configure(cfg)
			},
		},
		{
			name: "zero max stations",
			call: func() error {
				cfg := validConfig
				cfg.MaxStations = 0
				return c.Configure(cfg)
			},
		},
		{
			name: "max stations above 10",
			call: func() error {
				cfg := validConfig
				cfg.MaxStations = 11
				return c.Configure(cfg)
			},
		},
		{
			name: "empty station buffer",
			call: func() error { return c.Stations(nil, new(int)) },
		},
		{
			name: "zero MAC on disconnect",
			call: func() error { return c.Disconnect(wifi.MAC{}) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, dispatch.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if got := d.Depth(); got != 0 {
				t.Fatalf("rejected command was queued: depth %d", got)
			}
		})
	}

	if got := calls.Load(); got != 0 {
		t.Fatalf("codec executed %d times for rejected commands", got)
	}
}

func TestValidatorAcceptsBoundaryValues(t *testing.T) {
	c, _ := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		return nil
	}))

	cfg := wifi.APConfig{
		SSID:        "edge",
		Passphrase:  string(make([]byte, 64)),
		Channel:     128,
		Encryption:  wifi.EncryptionOpen,
		MaxStations: 10,
	}
	if err := c.Configure(cfg); err != nil {
		t.Fatalf("boundary config rejected: %v", err)
	}

	cfg.MaxStations = 1
	cfg.Channel = 0
	cfg.Passphrase = ""
	if err := c.Configure(cfg); err != nil {
		t.Fatalf("minimal config rejected: %v", err)
	}
}

func TestStationsZeroesCountBeforeDispatch(t *testing.T) {
	c, _ := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		return errors.New("module hiccup")
	}))

	found := 7
	buf := make([]wifi.Station, 4)
	err := c.Stations(buf, &found)
	if !errors.Is(err, dispatch.ErrDevice) {
		t.Fatalf("expected device error, got %v", err)
	}
	if found != 0 {
		t.Fatalf("found = %d after failed list, want 0", found)
	}
}

func TestStationsCappedAtBufferLen(t *testing.T) {
	// The fake module has five stations connected but only fills as
	// many entries as the caller's buffer holds.
	connected := []wifi.Station{
		{IP: wifi.IPv4{192, 168, 4, 100}, MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}},
		{IP: wifi.IPv4{192, 168, 4, 101}, MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02}},
		{IP: wifi.IPv4{192, 168, 4, 102}, MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x03}},
		{IP: wifi.IPv4{192, 168, 4, 103}, MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x04}},
		{IP: wifi.IPv4{192, 168, 4, 104}, MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x05}},
	}

	c, _ := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		ls, ok := p.(dispatch.ListStations)
		if !ok {
			t.Errorf("unexpected payload %T", p)
			return nil
		}
		n := copy(ls.Out, connected)
		if ls.Found != nil {
			*ls.Found = n
		}
		return nil
	}))

	found := -1
	buf := make([]wifi.Station, 2)
	if err := c.Stations(buf, &found); err != nil {
		t.Fatalf("Stations failed: %v", err)
	}
	if found != 2 {
		t.Fatalf("found = %d, want 2 (buffer capacity)", found)
	}
	if buf[0] != connected[0] || buf[1] != connected[1] {
		t.Fatalf("station buffer content wrong: %+v", buf)
	}
}

func TestCopiedFieldsIndependentOfCaller(t *testing.T) {
	gate := make(chan struct{})
	var seen wifi.IPv4
	c, _ := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		<-gate
		seen = p.(dispatch.SetAPAddrs).IP
		return nil
	}))

	ip := wifi.IPv4{192, 168, 4, 1}
	done := make(chan error, 1)
	err := c.SetAddrsAsync(ip, nil, nil, func(err error, _ any) {
		done <- err
	}, nil)
	if err != nil {
		t.Fatalf("SetAddrsAsync failed: %v", err)
	}

	// Clobber the caller's variable after submission; the in-flight
	// request must be unaffected because the address was copied.
	ip = wifi.IPv4{10, 0, 0, 99}
	_ = ip
	close(gate)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("terminal status: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	want := wifi.IPv4{192, 168, 4, 1}
	if seen != want {
		t.Fatalf("worker saw %v, want %v", seen, want)
	}
}

func TestConfigureThenReadBackAddrs(t *testing.T) {
	// Fake module: reports a zero IP until the AP is configured.
	var configured atomic.Bool
	c, _ := newTestClient(t, codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		switch v := p.(type) {
		case dispatch.ConfigureAP:
			configured.Store(true)
		case dispatch.GetAPAddrs:
			if configured.Load() {
				v.Out.IP = wifi.IPv4{192, 168, 4, 1}
				v.Out.Gateway = wifi.IPv4{192, 168, 4, 1}
				v.Out.Netmask = wifi.IPv4{255, 255, 255, 0}
			}
		}
		return nil
	}))

	err := c.Configure(wifi.APConfig{
		SSID:        "NET1",
		Passphrase:  "password123",
		Channel:     6,
		Encryption:  wifi.EncryptionWPA2PSK,
		MaxStations: 4,
	})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	var addrs wifi.APAddrs
	if err := c.Addrs(&addrs); err != nil {
		t.Fatalf("Addrs failed: %v", err)
	}
	if addrs.IP.Zero() {
		t.Fatal("AP IP still zero after configure")
	}
}

func TestPersistClassUsesLongDeadline(t *testing.T) {
	var timeouts []time.Duration
	codec := codecFunc(func(ctx context.Context, p dispatch.Payload) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("execution context has no deadline")
			return nil
		}
		timeouts = append(timeouts, time.Until(deadline))
		return nil
	})
	c, _ := newTestClient(t, codec)

	if err := c.MAC(&wifi.MAC{}); err != nil {
		t.Fatalf("MAC failed: %v", err)
	}
	if err := c.SetMAC(wifi.MAC{0x02, 0x1a, 0xfe, 0x34, 0xdf, 0xa4}); err != nil {
		t.Fatalf("SetMAC failed: %v", err)
	}

	if len(timeouts) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(timeouts))
	}
	if timeouts[0] > testTimeouts.Command {
		t.Fatalf("read deadline %v exceeds command class %v", timeouts[0], testTimeouts.Command)
	}
	if timeouts[1] < 5*time.Second {
		t.Fatalf("persist deadline %v shorter than expected", timeouts[1])
	}
}
