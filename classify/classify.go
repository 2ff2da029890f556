// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package classify assigns each captured Ethernet/IPv4 frame to a shard
// index, purely from its bytes. The same unordered {src,dst} address pair
// always lands on the same shard: the two addresses are hashed separately
// with a keyed, commutative hash and XORed together.
package classify

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

const (
	ethHeaderLen    = 14 // dst MAC (6) + src MAC (6) + EtherType (2)
	vlanTagLen      = 4  // 802.1Q TCI + re-tagged EtherType
	etherTypeVLAN   = 0x8100
	ipv4SrcOffset   = 12
	ipv4DstOffset   = 16
	ipv4AddrLen     = 4
	minInnerIPv4Len = ipv4DstOffset + ipv4AddrLen
)

// Key is the 128-bit SipHash-2-4 key, split into the two 64-bit halves
// dchest/siphash's API expects. A classifier must use the same Key across
// an entire process run for classification to stay deterministic across
// repeated runs of the same input and shard count.
type Key struct {
	K0, K1 uint64
}

// ZeroKey is the default, tuning-only key: any fixed key satisfies the
// classifier's correctness properties.
var ZeroKey = Key{}

// KeyFromBytes derives a Key from a 16-byte secret, matching the layout
// dchest/siphash itself uses internally for its Sum64 helper.
func KeyFromBytes(b [16]byte) Key {
	return Key{
		K0: binary.LittleEndian.Uint64(b[0:8]),
		K1: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// Classifier computes a shard index in [0, N) for a raw captured frame.
type Classifier struct {
	key    Key
	shards int
}

// New returns a Classifier that distributes frames across shards using
// key. shards must be positive.
func New(key Key, shards int) *Classifier {
	if shards <= 0 {
		shards = 1
	}
	return &Classifier{key: key, shards: shards}
}

// Shard returns the destination shard for the given captured frame bytes.
// A short or non-IPv4 frame is never rejected: it still returns a
// deterministic shard in [0, N) computed from whatever bytes are in
// range, zero-padded as needed. The hot path never branches on an error.
func (c *Classifier) Shard(raw []byte) int {
	inner := innerFrame(raw)
	src, dst := ipv4Addrs(inner)
	h := hashAddr(c.key, src) ^ hashAddr(c.key, dst)
	return int(h % uint64(c.shards))
}

// innerFrame strips the Ethernet header, skipping one 802.1Q VLAN tag if
// present, and returns whatever remains (possibly empty).
func innerFrame(raw []byte) []byte {
	if len(raw) < ethHeaderLen {
		return nil
	}
	etherType := binary.BigEndian.Uint16(raw[12:14])
	offset := ethHeaderLen
	if etherType == etherTypeVLAN {
		offset += vlanTagLen
	}
	if len(raw) < offset {
		return nil
	}
	return raw[offset:]
}

// ipv4Addrs reads the big-endian source and destination addresses at
// fixed IHL-agnostic offsets (octets 12-15, 16-19 of the inner frame),
// zero-extending short or absent input.
func ipv4Addrs(inner []byte) (src, dst uint32) {
	var buf [minInnerIPv4Len]byte
	copy(buf[:], inner)
	src = binary.BigEndian.Uint32(buf[ipv4SrcOffset : ipv4SrcOffset+ipv4AddrLen])
	dst = binary.BigEndian.Uint32(buf[ipv4DstOffset : ipv4DstOffset+ipv4AddrLen])
	return src, dst
}

// hashAddr hashes a single big-endian IPv4 address under key.
func hashAddr(key Key, addr uint32) uint64 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], addr)
	return siphash.Hash(key.K0, key.K1, b[:])
}
