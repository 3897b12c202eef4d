// Package glimmer implements the client side of the Open Pixel Control
// protocol used by Fadecandy-family LED servers such as Glimmer.
//
// A frame is a single update of pixel colors for one logical channel. The
// wire format is a 4-byte header followed by the payload:
//
//	[channel:1][command:1][length:2 big-endian][payload: length bytes]
//
// For the set-pixel-colors command the payload is the RGB triples of the
// frame's pixels in strip order. The protocol is fire-and-forget: no
// acknowledgement is sent by the server, and a dropped frame is preferable
// to a stale one.
package glimmer
