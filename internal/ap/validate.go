package ap

import (
	"fmt"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/wifi"
)

// maxPassphraseLen is the module's limit for the soft-AP passphrase.
const maxPassphraseLen = 64

// maxChannel is the highest RF channel number the module accepts.
const maxChannel = 128

// Station limits the module enforces for max_sta.
const (
	minStations = 1
	maxStations = 10
)

func validateAddrsOut(out *wifi.APAddrs) error {
	if out == nil {
		return fmt.Errorf("%w: output addresses must not be nil", dispatch.ErrInvalidArgument)
	}
	return nil
}

func validateSetAddrs(ip wifi.IPv4) error {
	if ip.Zero() {
		return fmt.Errorf("%w: IP address must not be zero", dispatch.ErrInvalidArgument)
	}
	return nil
}

func validateMACOut(out *wifi.MAC) error {
	if out == nil {
		return fmt.Errorf("%w: output MAC must not be nil", dispatch.ErrInvalidArgument)
	}
	return nil
}

func validateSetMAC(mac wifi.MAC) error {
	if mac.Zero() {
		return fmt.Errorf("%w: MAC address must not be zero", dispatch.ErrInvalidArgument)
	}
	// The radio's own address must be unicast; the module rejects MACs
	// with the multicast/locally-administered bit set.
	if mac.Multicast() {
		return fmt.Errorf("%w: bit 0 of byte 0 in AP MAC must be 0", dispatch.ErrInvalidArgument)
	}
	return nil
}

func validateConfigure(cfg wifi.APConfig) error {
	if cfg.SSID == "" {
		return fmt.Errorf("%w: SSID must not be empty", dispatch.ErrInvalidArgument)
	}
	if len(cfg.Passphrase) > maxPassphraseLen {
		return fmt.Errorf("%w: passphrase longer than %d characters", dispatch.ErrInvalidArgument, maxPassphraseLen)
	}
	if !cfg.Encryption.Valid() {
		return fmt.Errorf("%w: encryption mode %d not supported", dispatch.ErrInvalidArgument, cfg.Encryption)
	}
	if cfg.Channel > maxChannel {
		return fmt.Errorf("%w: channel %d out of range (max %d)", dispatch.ErrInvalidArgument, cfg.Channel, maxChannel)
	}
	if cfg.MaxStations < minStations || cfg.MaxStations > maxStations {
		return fmt.Errorf("%w: max stations %d out of range [%d,%d]", dispatch.ErrInvalidArgument, cfg.MaxStations, minStations, maxStations)
	}
	return nil
}

func validateStations(out []wifi.Station) error {
	if len(out) == 0 {
		return fmt.Errorf("%w: station buffer must not be empty", dispatch.ErrInvalidArgument)
	}
	return nil
}

func validateDisconnect(mac wifi.MAC) error {
	if mac.Zero() {
		return fmt.Errorf("%w: station MAC must not be zero", dispatch.ErrInvalidArgument)
	}
	return nil
}
