package atcmd

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/transport"
	"github.com/espwifi/wifid/internal/wifi"
)

// playModule runs a scripted module on the far end of the pipe: for
// every command line received it writes back the lines handle returns.
func playModule(t *testing.T, port transport.Port, handle func(cmd string) []string) {
	t.Helper()
	go func() {
		scanner := bufio.NewScanner(port)
		scanner.Split(Splitter)
		for scanner.Scan() {
			for _, line := range handle(scanner.Text()) {
				if _, err := port.Write([]byte(line + CRLF)); err != nil {
					return
				}
			}
		}
	}()
}

func newTestCodec(t *testing.T, hub *events.Hub, handle func(cmd string) []string) *Codec {
	t.Helper()
	host, module := transport.Pipe()
	playModule(t, module, handle)
	c := New(host, hub)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestExecuteQueryAddrs(t *testing.T) {
	c := newTestCodec(t, nil, func(cmd string) []string {
		if cmd != CmdQueryAPAddr {
			t.Errorf("unexpected command %q", cmd)
			return []string{Error}
		}
		return []string{
			`+CIPAP:ip:"192.168.4.1"`,
			`+CIPAP:gateway:"192.168.4.1"`,
			`+CIPAP:netmask:"255.255.255.0"`,
			OK,
		}
	})

	var out wifi.APAddrs
	err := c.Execute(context.Background(), dispatch.GetAPAddrs{Out: &out})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.IP != (wifi.IPv4{192, 168, 4, 1}) {
		t.Fatalf("ip = %v", out.IP)
	}
	if out.Gateway != (wifi.IPv4{192, 168, 4, 1}) || out.Netmask != (wifi.IPv4{255, 255, 255, 0}) {
		t.Fatalf("gateway/netmask = %v/%v", out.Gateway, out.Netmask)
	}
}

func TestExecuteConfigureWire(t *testing.T) {
	var got string
	c := newTestCodec(t, nil, func(cmd string) []string {
		got = cmd
		return []string{OK}
	})

	err := c.Execute(context.Background(), dispatch.ConfigureAP{Config: wifi.APConfig{
		SSID:        "NET1",
		Passphrase:  "password123",
		Channel:     6,
		Encryption:  wifi.EncryptionWPA2PSK,
		MaxStations: 4,
	}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if want := `AT+CWSAP="NET1","password123",6,3,4,0`; got != want {
		t.Fatalf("wire command = %q, want %q", got, want)
	}
}

func TestExecuteErrorWithDetail(t *testing.T) {
	c := newTestCodec(t, nil, func(cmd string) []string {
		return []string{"ERR CODE:0x01090000", Error}
	})

	err := c.Execute(context.Background(), dispatch.DisconnectStation{
		MAC: wifi.MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01},
	})
	if !errors.Is(err, dispatch.ErrDevice) {
		t.Fatalf("expected ErrDevice, got %v", err)
	}
	if !strings.Contains(err.Error(), "0x01090000") {
		t.Fatalf("error lost module detail: %v", err)
	}
}

func TestExecuteDeadline(t *testing.T) {
	block := make(chan struct{})
	c := newTestCodec(t, nil, func(cmd string) []string {
		<-block
		return []string{OK}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Execute(ctx, dispatch.GetAPMAC{Out: &wifi.MAC{}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	// The first command's reply arrives only after its deadline. The
	// codec must not let that late OK satisfy the next command.
	release := make(chan struct{})
	c := newTestCodec(t, nil, func(cmd string) []string {
		if cmd == CmdListStations {
			<-release
			return []string{OK} // Late, after the caller gave up.
		}
		return []string{`+CIPAPMAC:"02:1a:fe:34:df:a4"`, OK}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	err := c.Execute(ctx, dispatch.ListStations{Out: make([]wifi.Station, 4)})
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	close(release)
	time.Sleep(100 * time.Millisecond) // Let the late OK land in the channel.

	var mac wifi.MAC
	if err := c.Execute(context.Background(), dispatch.GetAPMAC{Out: &mac}); err != nil {
		t.Fatalf("command after stale response failed: %v", err)
	}
	if mac != (wifi.MAC{0x02, 0x1a, 0xfe, 0x34, 0xdf, 0xa4}) {
		t.Fatalf("mac = %v", mac)
	}
}

func TestURCPublishedMidCommand(t *testing.T) {
	hub := events.NewHub(16)
	sub, cancelSub := hub.Subscribe()
	defer cancelSub()

	c := newTestCodec(t, hub, func(cmd string) []string {
		return []string{
			"+CWLIF:192.168.4.100,aa:bb:cc:dd:ee:01",
			`+STA_CONNECTED:"aa:bb:cc:dd:ee:02"`, // Arrives mid-response.
			"+CWLIF:192.168.4.101,aa:bb:cc:dd:ee:02",
			OK,
		}
	})

	out := make([]wifi.Station, 4)
	found := 0
	err := c.Execute(context.Background(), dispatch.ListStations{Out: out, Found: &found})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if found != 2 {
		t.Fatalf("found = %d, want 2 (URC must not displace a data line)", found)
	}

	select {
	case ev := <-sub:
		if ev.Type != events.TypeStationConnected {
			t.Fatalf("event type = %q", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("URC never reached the hub")
	}
}

func TestURCWithoutCommandInFlight(t *testing.T) {
	hub := events.NewHub(16)
	sub, cancelSub := hub.Subscribe()
	defer cancelSub()

	host, module := transport.Pipe()
	c := New(host, hub)
	t.Cleanup(func() { _ = c.Close() })

	go func() {
		_, _ = module.Write([]byte(`+DIST_STA_IP:"aa:bb:cc:dd:ee:01","192.168.4.100"` + CRLF))
	}()

	select {
	case ev := <-sub:
		if ev.Type != events.TypeStationGotIP {
			t.Fatalf("event type = %q", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unsolicited notification never reached the hub")
	}
}

func TestExecuteAfterClose(t *testing.T) {
	host, module := transport.Pipe()
	_ = module
	c := New(host, nil)
	_ = c.Close()

	// The reader goroutine winds down once the port dies; give it a
	// moment so the closed channel is observable.
	time.Sleep(50 * time.Millisecond)

	err := c.Execute(context.Background(), dispatch.GetAPMAC{Out: &wifi.MAC{}})
	if !errors.Is(err, dispatch.ErrDevice) {
		t.Fatalf("expected ErrDevice after close, got %v", err)
	}
}
