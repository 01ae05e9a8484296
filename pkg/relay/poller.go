package relay

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

// OutboundMessage is a decoded MessageSent event: a GMP Send call observed
// on a source chain, not yet known to be delivered on its destination.
type OutboundMessage struct {
	SrcChainID uint64
	DstChainID uint64
	Nonce      uint64
	SrcAddr    [32]byte
	Payload    []byte
}

// decodeOutboundEvent decodes a chainadapter.Event of type "message_sent"
// into an OutboundMessage, mirroring pkg/monitor's decode*Event helpers.
func decodeOutboundEvent(srcChainID uint64, ev chainadapter.Event) (OutboundMessage, error) {
	dstChainID := uint64Field(ev.Raw, "dst_chain_id")
	nonce := uint64Field(ev.Raw, "nonce")

	srcAddrHex := stringField(ev.Raw, "src_addr")
	srcAddr, err := decode32(srcAddrHex)
	if err != nil {
		return OutboundMessage{}, fmt.Errorf("decode src_addr: %w", err)
	}

	payloadHex := stringField(ev.Raw, "payload")
	payload, err := hex.DecodeString(trimHexPrefix(payloadHex))
	if err != nil {
		return OutboundMessage{}, fmt.Errorf("decode payload: %w", err)
	}

	return OutboundMessage{
		SrcChainID: srcChainID,
		DstChainID: dstChainID,
		Nonce:      nonce,
		SrcAddr:    srcAddr,
		Payload:    payload,
	}, nil
}

func stringField(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func uint64Field(raw map[string]interface{}, key string) uint64 {
	switch v := raw[key].(type) {
	case uint64:
		return v
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	default:
		return 0
	}
}

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// pollSourceEvents fetches "message_sent" events between fromBlock and the
// adapter's current block (inclusive), returning the decoded outbound
// messages and the block height polling reached.
func pollSourceEvents(ctx context.Context, adapter chainadapter.Adapter, fromBlock uint64, logger *log.Logger) ([]OutboundMessage, uint64, error) {
	current, err := adapter.CurrentBlock(ctx)
	if err != nil {
		return nil, fromBlock, fmt.Errorf("current block: %w", err)
	}
	if fromBlock > current {
		return nil, fromBlock, nil
	}

	events, err := adapter.QueryEvents(ctx, fromBlock, current)
	if err != nil {
		return nil, fromBlock, fmt.Errorf("query events: %w", err)
	}

	var messages []OutboundMessage
	for _, ev := range events {
		if ev.EventType != "message_sent" {
			continue
		}
		msg, err := decodeOutboundEvent(adapter.ChainID(), ev)
		if err != nil {
			if logger != nil {
				logger.Printf("decode message_sent event on chain %d: %v", adapter.ChainID(), err)
			}
			continue
		}
		messages = append(messages, msg)
	}
	return messages, current + 1, nil
}
