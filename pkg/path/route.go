// Package path turns human-readable routes and tag references into CIP
// padded EPATH segments built on top of pkg/cip.
package path

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Conventional port numbers used by the hop shortcuts below: backplane
// (slot-addressed) and the Ethernet module's expansion port.
const (
	PortBackplane cip.UINT = 1
	PortEthernet  cip.UINT = 2
)

// PathWordLimit is the largest encoded path length, in 16-bit words, a
// single CIP message can carry (the path length field is one byte).
const PathWordLimit = 255

type hop struct {
	port cip.UINT
	link []byte
}

// ParseRoute parses a human route string ("1.2.3.4/bp/1/enet/5.6.7.8",
// case-insensitive, '/' or '\' separated) into a CIP padded EPATH of port
// segments. A bare IPv4 address is shorthand for routing through the
// Ethernet module to backplane slot 0; "IP/slot" shorthand targets a
// specific slot.
func ParseRoute(route string) (cip.Path, error) {
	route = strings.TrimSpace(route)
	if route == "" {
		return nil, &plcerr.PathSyntaxError{Input: route, Reason: "empty route"}
	}

	tokens := splitRoute(route)

	var hops []hop
	switch {
	case len(tokens) == 1:
		ip, ok := parseIPv4(tokens[0])
		if !ok {
			return nil, &plcerr.PathSyntaxError{Input: route, Reason: "single-token route must be a dotted IPv4 address"}
		}
		hops = []hop{
			{port: PortEthernet, link: ip},
			{port: PortBackplane, link: []byte{0}},
		}
	case len(tokens) == 2:
		ip, ok := parseIPv4(tokens[0])
		slot, slotOK := parseSlot(tokens[1])
		if !ok || !slotOK {
			return nil, &plcerr.PathSyntaxError{Input: route, Reason: "two-token route must be IP/slot"}
		}
		hops = []hop{
			{port: PortEthernet, link: ip},
			{port: PortBackplane, link: []byte{slot}},
		}
	default:
		var err error
		hops, err = parseHopChain(route, tokens)
		if err != nil {
			return nil, err
		}
	}

	p := cip.NewPath()
	for _, h := range hops {
		p.AddPortSegment(h.port, h.link)
	}

	if len(p) > PathWordLimit*2 {
		return nil, &plcerr.PathTooLongError{Length: len(p), Limit: PathWordLimit * 2}
	}
	return p, nil
}

// parseHopChain handles the general alternating grammar: an initial
// address token (hop implied by its kind), then repeating (hop, address)
// pairs.
func parseHopChain(route string, tokens []string) ([]hop, error) {
	hops := make([]hop, 0, len(tokens))

	first := tokens[0]
	if ip, ok := parseIPv4(first); ok {
		hops = append(hops, hop{port: PortEthernet, link: ip})
	} else if slot, ok := parseSlot(first); ok {
		hops = append(hops, hop{port: PortBackplane, link: []byte{slot}})
	} else {
		return nil, &plcerr.PathSyntaxError{Input: route, Reason: "route must begin with an IP address or slot number"}
	}

	rest := tokens[1:]
	if len(rest)%2 != 0 {
		return nil, &plcerr.PathSyntaxError{Input: route, Reason: "hop tokens must come in (hop, address) pairs"}
	}

	for i := 0; i < len(rest); i += 2 {
		hopTok, addrTok := rest[i], rest[i+1]
		port, err := parseHopToken(hopTok)
		if err != nil {
			return nil, &plcerr.PathSyntaxError{Input: route, Reason: err.Error()}
		}

		if ip, ok := parseIPv4(addrTok); ok {
			hops = append(hops, hop{port: port, link: ip})
			continue
		}
		if slot, ok := parseSlot(addrTok); ok {
			hops = append(hops, hop{port: port, link: []byte{slot}})
			continue
		}
		return nil, &plcerr.PathSyntaxError{Input: route, Reason: fmt.Sprintf("hop address %q is neither an IPv4 address nor a slot number", addrTok)}
	}
	return hops, nil
}

func parseHopToken(tok string) (cip.UINT, error) {
	switch strings.ToLower(tok) {
	case "backplane", "bp":
		return PortBackplane, nil
	case "enet":
		return PortEthernet, nil
	default:
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, err
		}
		return cip.UINT(n), nil
	}
}

func parseIPv4(tok string) ([]byte, bool) {
	ip := net.ParseIP(tok)
	if ip == nil || ip.To4() == nil || !strings.Contains(tok, ".") {
		return nil, false
	}
	return []byte(tok), true
}

func parseSlot(tok string) (byte, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || n > 0xFF {
		return 0, false
	}
	return byte(n), true
}

func splitRoute(route string) []string {
	route = strings.ReplaceAll(route, "\\", "/")
	parts := strings.Split(route, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
