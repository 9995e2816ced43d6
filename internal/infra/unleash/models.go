package unleash

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type collectionsResponse struct {
	Collections []collectionPayload `json:"collections"`
}

type collectionPayload struct {
	Name            string     `json:"name"`
	Blockchain      string     `json:"blockchain"`
	ChainID         FlexString `json:"chain_id"`
	ContractAddress string     `json:"contract_address"`
	Metadata        *struct {
		Name            string     `json:"name"`
		Blockchain      string     `json:"blockchain"`
		ChainID         FlexString `json:"chain_id"`
		ContractAddress string     `json:"contract_address"`
	} `json:"metadata"`
}

type metricsPayload struct {
	FloorPrice NullableDecimal `json:"floor_price"`
	Volume     NullableDecimal `json:"volume"`
	Sales      NullableDecimal `json:"sales"`
	Holders    NullableDecimal `json:"holders"`
	MarketCap  NullableDecimal `json:"marketcap"`
}

type metricsResponse struct {
	metricsPayload
	Stats *metricsPayload `json:"stats"`
}

type trendPayload struct {
	Volume       NullableDecimal `json:"volume"`
	VolumeChange NullableDecimal `json:"volume_change"`
	Sales        NullableDecimal `json:"sales"`
	SalesChange  NullableDecimal `json:"sales_change"`
	Traders      NullableDecimal `json:"traders"`
}

type trendResponse struct {
	trendPayload
	Stats *trendPayload `json:"stats"`
}

// NullableDecimal decodes a number, a numeric string, or an object with a
// "value" field. Anything else decodes as not valid rather than failing the payload.
type NullableDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	n.Valid = false
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var wrapped struct {
			Value NullableDecimal `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil
		}
		*n = wrapped.Value
		return nil
	case '"':
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil
		}
		trimmed = []byte(strings.TrimSpace(inner))
	}

	dec, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return nil
	}
	n.Decimal = dec
	n.Valid = true
	return nil
}

func (n NullableDecimal) ptr() *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	value := n.Decimal
	return &value
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(trimmed), 64); err != nil {
		return err
	}
	*f = FlexString(trimmed)
	return nil
}
