package stream

import (
	"encoding/json"
	"strings"
)

// payloadKind classifies an incoming frame into the closed set of shapes the
// feed is known to emit. Anything else is ignored rather than probed further.
type payloadKind int

const (
	payloadIgnored payloadKind = iota
	payloadTicker
	payloadPong
	payloadAck
	payloadError
)

// tickerFields are the symbol/price fields a ticker payload may carry at
// either nesting level. Prices arrive both as numbers and as strings.
type tickerFields struct {
	Symbol    string      `json:"symbol"`
	LastPrice json.Number `json:"lastPrice"`
	Price     json.Number `json:"price"`
}

type envelope struct {
	Channel string `json:"channel"`
	Msg     string `json:"msg"`
	tickerFields
	Data json.RawMessage `json:"data"`
}

func (f tickerFields) price() (float64, bool) {
	raw := f.LastPrice
	if raw == "" {
		raw = f.Price
	}
	if raw == "" {
		return 0, false
	}
	p, err := raw.Float64()
	if err != nil {
		return 0, false
	}
	return p, true
}

// classify parses a raw frame and, for ticker payloads, extracts the symbol
// and price. Supported ticker shapes:
//
//	{"channel":"push.ticker","symbol":"BTC_USDT","data":{"lastPrice":43210.5}}
//	{"symbol":"BTC_USDT","lastPrice":"43210.5"}
//	{"data":{"symbol":"BTC_USDT","lastPrice":43210.5}}
func classify(raw []byte) (payloadKind, string, float64) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return payloadIgnored, "", 0
	}

	switch {
	case env.Channel == "pong":
		return payloadPong, "", 0
	case env.Channel == "rs.error":
		return payloadError, "", 0
	case strings.HasPrefix(env.Channel, "rs."):
		return payloadAck, "", 0
	}

	if strings.Contains(env.Channel, "push.ticker") {
		var data tickerFields
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return payloadIgnored, "", 0
			}
		}
		if p, ok := data.price(); ok && env.Symbol != "" {
			return payloadTicker, env.Symbol, p
		}
		return payloadIgnored, "", 0
	}

	if env.Symbol != "" {
		if p, ok := env.tickerFields.price(); ok {
			return payloadTicker, env.Symbol, p
		}
		return payloadIgnored, "", 0
	}

	if len(env.Data) > 0 {
		var data tickerFields
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return payloadIgnored, "", 0
		}
		if p, ok := data.price(); ok && data.Symbol != "" {
			return payloadTicker, data.Symbol, p
		}
	}

	return payloadIgnored, "", 0
}
