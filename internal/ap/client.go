// Package ap exposes the access-point command family: interface
// addresses, radio MAC, soft-AP configuration and connected stations.
//
// Every operation follows the same shape: validate the arguments, build
// a request payload (addresses are copied into it, strings are
// immutable), and hand it to the dispatcher. The blocking form returns
// the terminal status; the Async form returns the submission status and
// delivers the terminal status through the callback, which runs on the
// dispatcher's worker goroutine.
package ap

import (
	"time"

	"github.com/espwifi/wifid/internal/config"
	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/wifi"
)

// Client issues access-point commands through the dispatcher.
type Client struct {
	d        *dispatch.Dispatcher
	timeouts config.TimeoutsConfig
}

// NewClient creates a command client. Timeouts select the deadline per
// command class: Command for reads and volatile sets, Persist for
// operations the module writes to non-volatile storage.
func NewClient(d *dispatch.Dispatcher, timeouts config.TimeoutsConfig) *Client {
	return &Client{d: d, timeouts: timeouts}
}

// Addrs reads the AP interface's IP, gateway and netmask into out.
func (c *Client) Addrs(out *wifi.APAddrs) error {
	p, timeout, err := c.addrsRequest(out)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// AddrsAsync is the non-blocking form of Addrs. The out fields are
// written by the worker on success; do not read them before the
// callback fires.
func (c *Client) AddrsAsync(out *wifi.APAddrs, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.addrsRequest(out)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// SetAddrs writes the AP interface addresses. gw and nm may be nil to
// let the module pick defaults. All three values are copied into the
// request; the caller's variables are free immediately.
func (c *Client) SetAddrs(ip wifi.IPv4, gw, nm *wifi.IPv4) error {
	p, timeout, err := c.setAddrsRequest(ip, gw, nm)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// SetAddrsAsync is the non-blocking form of SetAddrs.
func (c *Client) SetAddrsAsync(ip wifi.IPv4, gw, nm *wifi.IPv4, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.setAddrsRequest(ip, gw, nm)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// MAC reads the AP radio's hardware address into out.
func (c *Client) MAC(out *wifi.MAC) error {
	p, timeout, err := c.macRequest(out)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// MACAsync is the non-blocking form of MAC.
func (c *Client) MACAsync(out *wifi.MAC, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.macRequest(out)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// SetMAC writes the AP radio's hardware address. The module persists
// it, so this uses the long deadline.
func (c *Client) SetMAC(mac wifi.MAC) error {
	p, timeout, err := c.setMACRequest(mac)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// SetMACAsync is the non-blocking form of SetMAC.
func (c *Client) SetMACAsync(mac wifi.MAC, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.setMACRequest(mac)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// Configure reconfigures the soft access point. The module persists the
// configuration, so this uses the long deadline.
func (c *Client) Configure(cfg wifi.APConfig) error {
	p, timeout, err := c.configureRequest(cfg)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// ConfigureAsync is the non-blocking form of Configure.
func (c *Client) ConfigureAsync(cfg wifi.APConfig, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.configureRequest(cfg)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// Stations fills out with the stations connected to the AP, capped at
// len(out), and writes the number filled to found. found is zeroed
// before submission so an early failure still reads as zero stations;
// it may be nil if the caller only wants the slice contents.
func (c *Client) Stations(out []wifi.Station, found *int) error {
	p, timeout, err := c.stationsRequest(out, found)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// StationsAsync is the non-blocking form of Stations. out and found are
// written by the worker; do not read them before the callback fires.
func (c *Client) StationsAsync(out []wifi.Station, found *int, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.stationsRequest(out, found)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// Disconnect kicks the station with the given MAC off the access point.
func (c *Client) Disconnect(mac wifi.MAC) error {
	p, timeout, err := c.disconnectRequest(mac)
	if err != nil {
		return err
	}
	return c.d.Do(p, timeout)
}

// DisconnectAsync is the non-blocking form of Disconnect.
func (c *Client) DisconnectAsync(mac wifi.MAC, fn dispatch.CompleteFunc, arg any) error {
	p, timeout, err := c.disconnectRequest(mac)
	if err != nil {
		return err
	}
	return c.d.Go(p, timeout, fn, arg)
}

// Request builders. Validation happens here, before anything is
// queued; a failure means no request record exists at all.

func (c *Client) addrsRequest(out *wifi.APAddrs) (dispatch.Payload, time.Duration, error) {
	if err := validateAddrsOut(out); err != nil {
		return nil, 0, err
	}
	return dispatch.GetAPAddrs{Out: out}, c.timeouts.Command, nil
}

func (c *Client) setAddrsRequest(ip wifi.IPv4, gw, nm *wifi.IPv4) (dispatch.Payload, time.Duration, error) {
	if err := validateSetAddrs(ip); err != nil {
		return nil, 0, err
	}

	p := dispatch.SetAPAddrs{IP: ip}
	if gw != nil {
		p.Gateway = *gw
		p.HasGateway = true
	}
	if nm != nil {
		p.Netmask = *nm
		p.HasNetmask = true
	}
	return p, c.timeouts.Command, nil
}

func (c *Client) macRequest(out *wifi.MAC) (dispatch.Payload, time.Duration, error) {
	if err := validateMACOut(out); err != nil {
		return nil, 0, err
	}
	return dispatch.GetAPMAC{Out: out}, c.timeouts.Command, nil
}

func (c *Client) setMACRequest(mac wifi.MAC) (dispatch.Payload, time.Duration, error) {
	if err := validateSetMAC(mac); err != nil {
		return nil, 0, err
	}
	return dispatch.SetAPMAC{MAC: mac}, c.timeouts.Persist, nil
}

func (c *Client) configureRequest(cfg wifi.APConfig) (dispatch.Payload, time.Duration, error) {
	if err := validateConfigure(cfg); err != nil {
		return nil, 0, err
	}
	return dispatch.ConfigureAP{Config: cfg}, c.timeouts.Persist, nil
}

func (c *Client) stationsRequest(out []wifi.Station, found *int) (dispatch.Payload, time.Duration, error) {
	if err := validateStations(out); err != nil {
		return nil, 0, err
	}

	// Zero the count before dispatch so an early failure reports zero
	// stations instead of whatever the caller's variable held.
	if found != nil {
		*found = 0
	}
	return dispatch.ListStations{Out: out, Found: found}, c.timeouts.Command, nil
}

func (c *Client) disconnectRequest(mac wifi.MAC) (dispatch.Payload, time.Duration, error) {
	if err := validateDisconnect(mac); err != nil {
		return nil, 0, err
	}
	return dispatch.DisconnectStation{MAC: mac}, c.timeouts.Command, nil
}
