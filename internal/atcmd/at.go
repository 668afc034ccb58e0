// Package atcmd speaks the module's AT command protocol: it formats
// wire commands for dispatch payloads, drives the transport, and parses
// the CRLF-framed responses.
//
// The protocol is line oriented. A command is one CRLF-terminated line;
// the module answers with zero or more data lines followed by a final
// result code (OK or ERROR). Unsolicited result codes (URCs) such as
// station join notifications can arrive at any time, including in the
// middle of a command's response, and are routed to the event hub
// instead of the command flow.
//
// The package assumes echo is off (ATE0): the module does not repeat
// the command back before answering.
package atcmd

import "strings"

const (
	CRLF = "\r\n"

	// Final result codes.
	OK    = "OK"
	Error = "ERROR"
	Fail  = "FAIL"

	// The module answers "busy p..." while a previous operation is
	// still being processed.
	BusyPrefix = "busy"

	// Data line prefixes.
	PrefixAPAddr   = "+CIPAP:"
	PrefixAPMAC    = "+CIPAPMAC:"
	PrefixStation  = "+CWLIF:"
	PrefixErrCode  = "ERR CODE:"

	// Commands.
	CmdQueryAPAddr  = "AT+CIPAP?"
	CmdSetAPAddr    = "AT+CIPAP="
	CmdQueryAPMAC   = "AT+CIPAPMAC?"
	CmdSetAPMAC     = "AT+CIPAPMAC="
	CmdConfigureAP  = "AT+CWSAP="
	CmdListStations = "AT+CWLIF"
	CmdKickStation  = "AT+CWQIF="

	// URCs (unsolicited result codes).
	UrcStationConnected    = "+STA_CONNECTED:"
	UrcStationDisconnected = "+STA_DISCONNECTED:"
	UrcStationGotIP        = "+DIST_STA_IP:"
	UrcReady               = "ready"
)

// ResponseType classifies a line from the module so the reader knows
// whether it belongs to the in-flight command or to the event stream.
type ResponseType int

const (
	// TypeFinal terminates the in-flight command: OK, ERROR, FAIL or a
	// busy report. No further output follows for this command.
	TypeFinal ResponseType = iota

	// TypeURC is an asynchronous notification, not part of any command
	// response. Example: `+STA_CONNECTED:"aa:bb:cc:dd:ee:ff"`.
	TypeURC

	// TypeData is intermediate command output. A command may produce
	// several data lines before its final result code.
	TypeData
)

// Classify determines how a response line should be handled.
func Classify(line string) ResponseType {
	switch {
	case line == OK, line == Error, line == Fail:
		return TypeFinal
	case strings.HasPrefix(line, BusyPrefix):
		return TypeFinal
	case line == UrcReady:
		return TypeURC
	case strings.HasPrefix(line, UrcStationConnected),
		strings.HasPrefix(line, UrcStationDisconnected),
		strings.HasPrefix(line, UrcStationGotIP):
		return TypeURC
	}
	return TypeData
}

// Splitter is a bufio.SplitFunc that tokenizes module output into
// CRLF-terminated lines, dropping blank lines between responses.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}

	for i := start; i+1 < len(data); i++ {
		if data[i] == '\r' && data[i+1] == '\n' {
			return i + 2, data[start:i], nil
		}
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}

	// Consume leading CRLF noise even without a complete line.
	return start, nil, nil
}
