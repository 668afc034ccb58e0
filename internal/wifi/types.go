// Package wifi holds the value types shared between the dispatcher, the
// AT codec and the public command surface: IPv4 addresses, hardware MAC
// addresses, encryption modes and access-point configuration.
//
// IPv4 and MAC are fixed-size arrays on purpose. Assigning them copies
// the bytes, so a request record holding one is independent of the
// caller's variable from the moment it is built.
package wifi

import (
	"fmt"
	"strconv"
	"strings"
)

// IPv4 is a dotted-quad address in network byte order.
type IPv4 [4]byte

// Zero reports whether the address is 0.0.0.0.
func (ip IPv4) Zero() bool {
	return ip == IPv4{}
}

func (ip IPv4) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

// ParseIPv4 parses a dotted-quad string such as "192.168.4.1".
func ParseIPv4(s string) (IPv4, error) {
	var ip IPv4
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return ip, fmt.Errorf("invalid IPv4 address %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return ip, fmt.Errorf("invalid IPv4 address %q: %w", s, err)
		}
		ip[i] = byte(n)
	}
	return ip, nil
}

// MAC is a 48-bit hardware address.
type MAC [6]byte

// Zero reports whether the address is all zeroes.
func (m MAC) Zero() bool {
	return m == MAC{}
}

// Multicast reports whether the multicast/locally-administered bit
// (low bit of the first octet) is set. A radio's own MAC must not have
// it set; hardware addresses are unicast.
func (m MAC) Multicast() bool {
	return m[0]&0x01 != 0
}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// ParseMAC parses a colon-separated hex string such as "aa:bb:cc:dd:ee:ff".
func ParseMAC(s string) (MAC, error) {
	var m MAC
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return m, fmt.Errorf("invalid MAC address %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return m, fmt.Errorf("invalid MAC address %q: %w", s, err)
		}
		m[i] = byte(n)
	}
	return m, nil
}

// Encryption selects the access point's authentication mode. The values
// match the module's ecn parameter encoding.
type Encryption uint8

const (
	EncryptionOpen       Encryption = 0
	EncryptionWPAPSK     Encryption = 2
	EncryptionWPA2PSK    Encryption = 3
	EncryptionWPAWPA2PSK Encryption = 4
)

// Valid reports whether the mode is one the module accepts.
func (e Encryption) Valid() bool {
	switch e {
	case EncryptionOpen, EncryptionWPAPSK, EncryptionWPA2PSK, EncryptionWPAWPA2PSK:
		return true
	}
	return false
}

func (e Encryption) String() string {
	switch e {
	case EncryptionOpen:
		return "open"
	case EncryptionWPAPSK:
		return "wpa-psk"
	case EncryptionWPA2PSK:
		return "wpa2-psk"
	case EncryptionWPAWPA2PSK:
		return "wpa-wpa2-psk"
	}
	return fmt.Sprintf("encryption(%d)", uint8(e))
}

// ParseEncryption maps a mode name to its Encryption value. It accepts
// the strings produced by Encryption.String.
func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(s) {
	case "open":
		return EncryptionOpen, nil
	case "wpa-psk":
		return EncryptionWPAPSK, nil
	case "wpa2-psk":
		return EncryptionWPA2PSK, nil
	case "wpa-wpa2-psk":
		return EncryptionWPAWPA2PSK, nil
	}
	return 0, fmt.Errorf("unknown encryption mode %q", s)
}

// APConfig describes the soft access point the module should run.
type APConfig struct {
	SSID        string
	Passphrase  string
	Channel     uint8
	Encryption  Encryption
	MaxStations uint8
	Hidden      bool
}

// Station is one client connected to the access point.
type Station struct {
	IP  IPv4
	MAC MAC
}

// APAddrs groups the three addresses the module reports for its AP
// interface.
type APAddrs struct {
	IP      IPv4
	Gateway IPv4
	Netmask IPv4
}
