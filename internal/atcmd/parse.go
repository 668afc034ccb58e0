package atcmd

import (
	"fmt"
	"strings"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/wifi"
)

// decode applies the data lines of a completed command to the payload's
// output fields. Called only after the module answered OK.
func decode(p dispatch.Payload, data []string) error {
	switch v := p.(type) {
	case dispatch.GetAPAddrs:
		return decodeAPAddrs(v.Out, data)
	case dispatch.GetAPMAC:
		return decodeAPMAC(v.Out, data)
	case dispatch.ListStations:
		return decodeStations(v.Out, v.Found, data)
	}
	// Write commands carry no data lines worth keeping.
	return nil
}

// decodeAPAddrs parses the three address report lines:
//
//	+CIPAP:ip:"192.168.4.1"
//	+CIPAP:gateway:"192.168.4.1"
//	+CIPAP:netmask:"255.255.255.0"
func decodeAPAddrs(out *wifi.APAddrs, data []string) error {
	seen := false
	for _, line := range data {
		rest, ok := strings.CutPrefix(line, PrefixAPAddr)
		if !ok {
			continue
		}
		key, val, ok := strings.Cut(rest, ":")
		if !ok {
			return fmt.Errorf("malformed address report %q", line)
		}
		ip, err := wifi.ParseIPv4(unquote(val))
		if err != nil {
			return fmt.Errorf("address report %q: %w", line, err)
		}
		switch key {
		case "ip":
			out.IP = ip
			seen = true
		case "gateway":
			out.Gateway = ip
		case "netmask":
			out.Netmask = ip
		default:
			return fmt.Errorf("unknown address field %q in %q", key, line)
		}
	}
	if !seen {
		return fmt.Errorf("module reported no AP address")
	}
	return nil
}

// decodeAPMAC parses `+CIPAPMAC:"aa:bb:cc:dd:ee:ff"`.
func decodeAPMAC(out *wifi.MAC, data []string) error {
	for _, line := range data {
		rest, ok := strings.CutPrefix(line, PrefixAPMAC)
		if !ok {
			continue
		}
		mac, err := wifi.ParseMAC(unquote(rest))
		if err != nil {
			return fmt.Errorf("MAC report %q: %w", line, err)
		}
		*out = mac
		return nil
	}
	return fmt.Errorf("module reported no AP MAC")
}

// decodeStations parses one `+CWLIF:<ip>,<mac>` line per connected
// station. Stations beyond the caller's buffer are dropped; found gets
// the number actually stored.
func decodeStations(out []wifi.Station, found *int, data []string) error {
	n := 0
	for _, line := range data {
		rest, ok := strings.CutPrefix(line, PrefixStation)
		if !ok {
			continue
		}
		if n == len(out) {
			break
		}
		ipStr, macStr, ok := strings.Cut(rest, ",")
		if !ok {
			return fmt.Errorf("malformed station report %q", line)
		}
		ip, err := wifi.ParseIPv4(unquote(ipStr))
		if err != nil {
			return fmt.Errorf("station report %q: %w", line, err)
		}
		mac, err := wifi.ParseMAC(unquote(macStr))
		if err != nil {
			return fmt.Errorf("station report %q: %w", line, err)
		}
		out[n] = wifi.Station{IP: ip, MAC: mac}
		n++
	}
	if found != nil {
		*found = n
	}
	return nil
}

// unquote strips the surrounding double quotes the module puts around
// string values. Values without quotes pass through unchanged.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
