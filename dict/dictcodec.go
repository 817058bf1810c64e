package dict

import (
	"encoding/binary"
	"fmt"
)

// EncodeDictPayload serializes c's newly discovered nodes (this VB's own
// contribution, c.Dict/c.Nodes — unaffected by Store.Merge, which only
// copies them into the global dictionary) as a sequence of
// length-prefixed snips, the wire form written as a SEC_DICT section body.
func EncodeDictPayload(c *Ctx) []byte {
	var buf []byte
	var lenBuf [4]byte
	for _, n := range c.Nodes {
		snip := c.Dict[n.CharIndex : n.CharIndex+n.Len]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(snip)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, snip...)
	}
	return buf
}

// DecodeDictPayload parses a SEC_DICT section body back into dictionary
// bytes and a Node table, assigning word indices sequentially starting at
// 0 — valid as a standalone global dictionary only when payloads from
// every VB that touched this dict_id are decoded in the same order they
// were merged (ascending vblock_i), which is how genounzip consumes them.
func DecodeDictPayload(payload []byte) (dictBytes []byte, nodes []Node, err error) {
	pos := 0
	for pos < len(payload) {
		if pos+4 > len(payload) {
			return nil, nil, fmt.Errorf("dict: truncated dict payload at byte %d", pos)
		}
		l := binary.BigEndian.Uint32(payload[pos : pos+4])
		pos += 4
		if pos+int(l) > len(payload) {
			return nil, nil, fmt.Errorf("dict: dict payload snip overruns buffer at byte %d", pos)
		}
		snip := payload[pos : pos+int(l)]
		pos += int(l)
		nodes = append(nodes, Node{
			CharIndex: uint32(len(dictBytes)),
			Len:       l,
			WordIndex: uint32(len(nodes)),
		})
		dictBytes = append(dictBytes, snip...)
	}
	return dictBytes, nodes, nil
}
