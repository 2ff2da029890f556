package classify

import (
	"encoding/binary"
	"testing"
)

func buildEthIPv4(vlan bool, src, dst uint32) []byte {
	var buf []byte
	buf = append(buf, make([]byte, 12)...) // dst/src MAC, irrelevant to classification
	if vlan {
		buf = append(buf, 0x81, 0x00) // EtherType: 802.1Q
		buf = append(buf, 0x00, 0x01) // TCI
		buf = append(buf, 0x08, 0x00) // inner EtherType: IPv4
	} else {
		buf = append(buf, 0x08, 0x00) // EtherType: IPv4
	}
	ip := make([]byte, 20)
	ip[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint32(ip[12:16], src)
	binary.BigEndian.PutUint32(ip[16:20], dst)
	buf = append(buf, ip...)
	return buf
}

func TestShardIsDeterministic(t *testing.T) {
	c := New(ZeroKey, 4)
	raw := buildEthIPv4(false, 0x0A000001, 0x0A000002)
	first := c.Shard(raw)
	for i := 0; i < 10; i++ {
		if got := c.Shard(raw); got != first {
			t.Fatalf("shard changed across calls: first=%d got=%d", first, got)
		}
	}
	if first < 0 || first >= 4 {
		t.Fatalf("shard %d out of range [0,4)", first)
	}
}

func TestBidirectionalSymmetry(t *testing.T) {
	c := New(ZeroKey, 8)
	fwd := buildEthIPv4(false, 0xC0A80001, 0xC0A80002)
	rev := buildEthIPv4(false, 0xC0A80002, 0xC0A80001)
	if c.Shard(fwd) != c.Shard(rev) {
		t.Fatalf("forward and reverse flow hashed to different shards")
	}
}

func TestVLANTagDoesNotChangeShard(t *testing.T) {
	c := New(ZeroKey, 8)
	plain := buildEthIPv4(false, 0x0A000001, 0x0A000002)
	tagged := buildEthIPv4(true, 0x0A000001, 0x0A000002)
	if c.Shard(plain) != c.Shard(tagged) {
		t.Fatalf("VLAN tag changed shard assignment for identical IPv4 pair")
	}
}

func TestShortFrameNeverPanics(t *testing.T) {
	c := New(ZeroKey, 4)
	for n := 0; n < ethHeaderLen+4; n++ {
		raw := make([]byte, n)
		shard := c.Shard(raw)
		if shard < 0 || shard >= 4 {
			t.Fatalf("short frame of length %d produced out-of-range shard %d", n, shard)
		}
	}
}

func TestShortFrameIsDeterministic(t *testing.T) {
	c := New(ZeroKey, 4)
	raw := []byte{1, 2, 3}
	first := c.Shard(raw)
	for i := 0; i < 5; i++ {
		if got := c.Shard(raw); got != first {
			t.Fatalf("malformed frame classification not deterministic: first=%d got=%d", first, got)
		}
	}
}

func TestDifferentKeysCanDisagree(t *testing.T) {
	// Not a correctness requirement, just documents that the key is a
	// tuning knob: two distinct keys are allowed (but not required) to
	// distribute the same pair differently.
	raw := buildEthIPv4(false, 0x0A000001, 0x0A000002)
	a := New(ZeroKey, 1024).Shard(raw)
	b := New(Key{K0: 1, K1: 2}, 1024).Shard(raw)
	_ = a
	_ = b
}

func TestSingleShard(t *testing.T) {
	c := New(ZeroKey, 1)
	raw := buildEthIPv4(false, 0x0A000001, 0x0A000002)
	if got := c.Shard(raw); got != 0 {
		t.Fatalf("expected shard 0 for N=1, got %d", got)
	}
}
