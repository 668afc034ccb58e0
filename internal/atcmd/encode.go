package atcmd

import (
	"fmt"
	"strings"

	"github.com/espwifi/wifid/internal/dispatch"
)

// encode renders the wire command line for a payload, without the CRLF
// terminator.
func encode(p dispatch.Payload) (string, error) {
	switch v := p.(type) {
	case dispatch.GetAPAddrs:
		return CmdQueryAPAddr, nil

	case dispatch.SetAPAddrs:
		var b strings.Builder
		b.WriteString(CmdSetAPAddr)
		b.WriteString(quote(v.IP.String()))
		// Parameters are positional: a netmask cannot be sent without a
		// gateway, so the IP doubles as gateway when only the netmask
		// was given.
		if v.HasGateway || v.HasNetmask {
			gw := v.IP
			if v.HasGateway {
				gw = v.Gateway
			}
			b.WriteByte(',')
			b.WriteString(quote(gw.String()))
		}
		if v.HasNetmask {
			b.WriteByte(',')
			b.WriteString(quote(v.Netmask.String()))
		}
		return b.String(), nil

	case dispatch.GetAPMAC:
		return CmdQueryAPMAC, nil

	case dispatch.SetAPMAC:
		return CmdSetAPMAC + quote(v.MAC.String()), nil

	case dispatch.ConfigureAP:
		cfg := v.Config
		hidden := 0
		if cfg.Hidden {
			hidden = 1
		}
		return fmt.Sprintf("%s%s,%s,%d,%d,%d,%d",
			CmdConfigureAP,
			quote(cfg.SSID),
			quote(cfg.Passphrase),
			cfg.Channel,
			cfg.Encryption,
			cfg.MaxStations,
			hidden,
		), nil

	case dispatch.ListStations:
		return CmdListStations, nil

	case dispatch.DisconnectStation:
		return CmdKickStation + quote(v.MAC.String()), nil
	}

	return "", fmt.Errorf("%w: no wire command for payload %T", dispatch.ErrInvalidArgument, p)
}

// quote wraps s in double quotes, escaping the characters the module
// treats as special inside string parameters.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', ',', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
