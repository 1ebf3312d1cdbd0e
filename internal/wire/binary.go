package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
	"github.com/ndrandal/market-sim/go-market/internal/engine"
)

// EncodeBinary encodes an envelope as a run of messages, each prefixed with
// a 2-byte big-endian length. Snapshots and cycles are a header followed by
// one quote per product; trades are a trade message followed by the
// product's updated quote. Binary quotes omit name, volume and description.
func EncodeBinary(e Envelope) []byte {
	var out []byte
	switch e.Type {
	case KindSnapshot, KindCycle:
		t := MsgCycle
		if e.Type == KindSnapshot {
			t = MsgSnapshot
		}
		out = appendFrame(out, encodeHeader(t, e.Cycle, len(e.Quotes)))
		for i := range e.Quotes {
			out = appendFrame(out, encodeQuote(&e.Quotes[i]))
		}
	case KindTrade:
		if e.Trade == nil {
			return nil
		}
		out = appendFrame(out, encodeTrade(e.Cycle, e.Trade))
		if e.Quote != nil {
			out = appendFrame(out, encodeQuote(e.Quote))
		}
	}
	return out
}

func appendFrame(out, body []byte) []byte {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(body)))
	out = append(out, l[:]...)
	return append(out, body...)
}

func encodeHeader(t MsgType, cycle uint64, count int) []byte {
	buf := make([]byte, headerLen)
	buf[0] = byte(t)
	binary.BigEndian.PutUint64(buf[1:9], cycle)
	binary.BigEndian.PutUint16(buf[9:11], uint16(count))
	return buf
}

func encodeTrade(cycle uint64, rc *engine.Receipt) []byte {
	buf := make([]byte, tradeLen)
	buf[0] = byte(MsgTrade)
	binary.BigEndian.PutUint64(buf[1:9], cycle)
	copy(buf[9:25], rc.TradeID[:])
	buf[25] = byte(rc.Side)
	p := PadProduct(rc.ProductID)
	copy(buf[26:34], p[:])
	binary.BigEndian.PutUint32(buf[34:38], uint32(rc.Quantity))
	binary.BigEndian.PutUint64(buf[38:46], uint64(rc.UnitPrice))
	binary.BigEndian.PutUint64(buf[46:54], uint64(rc.Total))
	binary.BigEndian.PutUint64(buf[54:62], uint64(rc.NewPrice))
	binary.BigEndian.PutUint64(buf[62:70], uint64(rc.Money))
	return buf
}

func encodeQuote(q *engine.Quote) []byte {
	buf := make([]byte, quoteLen)
	buf[0] = byte(MsgQuote)
	p := PadProduct(q.ProductID)
	copy(buf[1:9], p[:])
	binary.BigEndian.PutUint32(buf[9:13], uint32(q.Quantity))
	binary.BigEndian.PutUint32(buf[13:17], uint32(q.MaxQuantity))
	binary.BigEndian.PutUint64(buf[17:25], uint64(q.Price))
	binary.BigEndian.PutUint64(buf[25:33], uint64(q.PriceWithoutImpact))
	binary.BigEndian.PutUint64(buf[33:41], math.Float64bits(q.Impact))
	if q.TrendUp {
		buf[41] = 1
	}
	buf[42] = byte(q.TrendPointer)
	buf[43] = byte(q.Rarity)
	return buf
}

// DecodeBinary parses a frame produced by EncodeBinary.
func DecodeBinary(data []byte) (Envelope, error) {
	var e Envelope
	sawHeader := false

	for off := 0; off < len(data); {
		if off+2 > len(data) {
			return e, fmt.Errorf("%w: truncated length at offset %d", ErrShortFrame, off)
		}
		n := int(binary.BigEndian.Uint16(data[off : off+2]))
		off += 2
		if n == 0 || off+n > len(data) {
			return e, fmt.Errorf("%w: body of %d bytes at offset %d", ErrShortFrame, n, off)
		}
		body := data[off : off+n]
		off += n

		switch MsgType(body[0]) {
		case MsgSnapshot, MsgCycle:
			if len(body) < headerLen {
				return e, fmt.Errorf("%w: header is %d bytes", ErrShortFrame, len(body))
			}
			e.Type = KindCycle
			if MsgType(body[0]) == MsgSnapshot {
				e.Type = KindSnapshot
			}
			e.Cycle = binary.BigEndian.Uint64(body[1:9])
			e.Quotes = make([]engine.Quote, 0, binary.BigEndian.Uint16(body[9:11]))
			sawHeader = true
		case MsgTrade:
			rc, cycle, err := decodeTrade(body)
			if err != nil {
				return e, err
			}
			e.Type = KindTrade
			e.Cycle = cycle
			e.Trade = &rc
			sawHeader = true
		case MsgQuote:
			if !sawHeader {
				return e, ErrNoHeader
			}
			q, err := decodeQuote(body)
			if err != nil {
				return e, err
			}
			if e.Type == KindTrade {
				e.Quote = &q
			} else {
				e.Quotes = append(e.Quotes, q)
			}
		default:
			return e, fmt.Errorf("%w: %q", ErrUnknownType, body[0])
		}
	}
	if !sawHeader {
		return e, ErrNoHeader
	}
	return e, nil
}

func decodeTrade(b []byte) (engine.Receipt, uint64, error) {
	if len(b) < tradeLen {
		return engine.Receipt{}, 0, fmt.Errorf("%w: trade is %d bytes", ErrShortFrame, len(b))
	}
	var id uuid.UUID
	copy(id[:], b[9:25])
	rc := engine.Receipt{
		TradeID:   id,
		Side:      engine.Side(b[25]),
		ProductID: strings.TrimRight(string(b[26:34]), " "),
		Quantity:  int(binary.BigEndian.Uint32(b[34:38])),
		Result:    engine.TradeOK,
		UnitPrice: int64(binary.BigEndian.Uint64(b[38:46])),
		Total:     int64(binary.BigEndian.Uint64(b[46:54])),
		NewPrice:  int64(binary.BigEndian.Uint64(b[54:62])),
		Money:     int64(binary.BigEndian.Uint64(b[62:70])),
	}
	return rc, binary.BigEndian.Uint64(b[1:9]), nil
}

func decodeQuote(b []byte) (engine.Quote, error) {
	if len(b) < quoteLen {
		return engine.Quote{}, fmt.Errorf("%w: quote is %d bytes", ErrShortFrame, len(b))
	}
	return engine.Quote{
		ProductID:          strings.TrimRight(string(b[1:9]), " "),
		Quantity:           int(binary.BigEndian.Uint32(b[9:13])),
		MaxQuantity:        int(binary.BigEndian.Uint32(b[13:17])),
		Price:              int64(binary.BigEndian.Uint64(b[17:25])),
		PriceWithoutImpact: int64(binary.BigEndian.Uint64(b[25:33])),
		Impact:             math.Float64frombits(binary.BigEndian.Uint64(b[33:41])),
		TrendUp:            b[41] == 1,
		TrendPointer:       int(b[42]),
		Rarity:             catalog.Rarity(b[43]),
	}, nil
}
