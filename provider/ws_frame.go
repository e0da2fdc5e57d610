// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

package provider

import (
	"net"
	"net/http"
	"sync"
)

// wsFrameSniffer wraps the raw connection a WebSocket dial drives and
// passively parses the RFC 6455 frame-header stream flowing through Read.
// gorilla/websocket enforces these same rules internally but reports every
// violation as one generic close-protocol-error; this sniffer classifies
// the violation itself so each maps onto its own declared ErrorKind
// (spec.md §8) instead of collapsing into a single catch-all. It never
// alters the bytes it observes.
//
// Sniffing only begins once activate is called, after the HTTP upgrade
// handshake has completed: bytes read during the handshake are HTTP
// response text, not WebSocket frames, and must not be fed to the parser.
type wsFrameSniffer struct {
	net.Conn

	mu     sync.Mutex
	active bool
	found  *Error

	state      int
	opcode     byte
	fin        bool
	masked     bool
	lenBuf     []byte
	lenNeed    int
	maskNeed   int
	payloadLen uint64
	remaining  uint64
	fragmented bool
}

const (
	wsSniffHeader1 = iota
	wsSniffHeader2
	wsSniffExtLen
	wsSniffMaskKey
	wsSniffPayload
)

func (s *wsFrameSniffer) activate() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

func (s *wsFrameSniffer) Read(p []byte) (int, error) {
	n, err := s.Conn.Read(p)
	if n > 0 {
		s.mu.Lock()
		if s.active {
			s.scan(p[:n])
		}
		s.mu.Unlock()
	}
	return n, err
}

// take returns the first violation sniffed so far, if any.
func (s *wsFrameSniffer) take() *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.found
}

func (s *wsFrameSniffer) note(kind ErrorKind, message string) {
	if s.found == nil {
		s.found = Wrap(kind, message, nil)
	}
}

// scan advances the frame-header parser byte by byte across Read-call
// boundaries. Payload bytes are counted and skipped unread, since only the
// header carries the bits this taxonomy distinguishes.
func (s *wsFrameSniffer) scan(b []byte) {
	for _, c := range b {
		switch s.state {
		case wsSniffHeader1:
			s.fin = c&0x80 != 0
			if c&0x70 != 0 {
				s.note(UnnegociatedReservedBits, "server frame set a reserved bit")
			}
			s.opcode = c & 0x0f
			switch s.opcode {
			case 0x0:
				if !s.fragmented {
					s.note(UnexpectedFragment, "continuation frame with no fragmented message open")
				}
				if s.fin {
					s.fragmented = false
				}
			case 0x1, 0x2:
				s.fragmented = !s.fin
			case 0x8, 0x9, 0xa:
				if !s.fin {
					s.note(FragmentedControl, "control frame was fragmented")
				}
			default:
				s.note(UnsupportedOpcode, "server frame used an unassigned opcode")
			}
			s.state = wsSniffHeader2
		case wsSniffHeader2:
			s.masked = c&0x80 != 0
			if s.masked {
				s.note(MaskedServerMessage, "server frame had the mask bit set")
			}
			length := uint64(c & 0x7f)
			switch length {
			case 126:
				s.lenNeed, s.lenBuf, s.state = 2, s.lenBuf[:0], wsSniffExtLen
			case 127:
				s.lenNeed, s.lenBuf, s.state = 8, s.lenBuf[:0], wsSniffExtLen
			default:
				s.payloadLen = length
				s.afterLength()
			}
		case wsSniffExtLen:
			s.lenBuf = append(s.lenBuf, c)
			if len(s.lenBuf) == s.lenNeed {
				s.payloadLen = 0
				for _, bb := range s.lenBuf {
					s.payloadLen = s.payloadLen<<8 | uint64(bb)
				}
				s.afterLength()
			}
		case wsSniffMaskKey:
			s.maskNeed--
			if s.maskNeed == 0 {
				s.beginPayload()
			}
		case wsSniffPayload:
			s.remaining--
			if s.remaining == 0 {
				s.state = wsSniffHeader1
			}
		}
	}
}

func (s *wsFrameSniffer) afterLength() {
	if s.opcode >= 0x8 && s.payloadLen > 125 {
		s.note(ControlFrameTooBig, "control frame payload exceeded 125 bytes")
	}
	if s.masked {
		s.maskNeed = 4
		s.state = wsSniffMaskKey
		return
	}
	s.beginPayload()
}

func (s *wsFrameSniffer) beginPayload() {
	if s.payloadLen == 0 {
		s.state = wsSniffHeader1
		return
	}
	s.remaining = s.payloadLen
	s.state = wsSniffPayload
}

// duplicateHandshakeHeader reports the name of the first RFC 6455-mandated
// handshake response header repeated more than once, or "" if none is.
func duplicateHandshakeHeader(h http.Header) string {
	for _, key := range []string{"Upgrade", "Connection", "Sec-Websocket-Accept"} {
		if len(h.Values(key)) > 1 {
			return key
		}
	}
	return ""
}
