package kv

import (
	"bytes"
	"encoding/binary"
	"time"
)

// 不支持条目级 TTL 的后端（NATS KV、groupcache）把过期时间写进值头部.
//
//	| "pv\x01" | expiry unix nano, int64 big endian | value |
var envelopeMagic = []byte("pv\x01")

const envelopeHeader = 3 + 8

// sealValue ttl>0 时在值前加过期时间头，否则原样返回.
func sealValue(value []byte, ttl time.Duration, now time.Time) []byte {
	if ttl <= 0 {
		return value
	}

	out := make([]byte, envelopeHeader+len(value))
	copy(out, envelopeMagic)
	binary.BigEndian.PutUint64(out[len(envelopeMagic):], uint64(now.Add(ttl).UnixNano()))
	copy(out[envelopeHeader:], value)

	return out
}

// openValue 拆开过期时间头，expired 为 true 时 value 为 nil.
// 没有头部的值视为永不过期.
func openValue(raw []byte, now time.Time) (value []byte, expired bool) {
	if len(raw) < envelopeHeader || !bytes.HasPrefix(raw, envelopeMagic) {
		return raw, false
	}

	exp := int64(binary.BigEndian.Uint64(raw[len(envelopeMagic):envelopeHeader]))
	if now.UnixNano() >= exp {
		return nil, true
	}

	return raw[envelopeHeader:], false
}
