// internal/market/types.go
package market

import "encoding/json"

// Scalar holds a JSON value that the market API serves inconsistently
// as either a number or a string. The raw textual form is preserved so
// values pass through unmodified.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(b)
	return nil
}

func (s Scalar) String() string { return string(s) }

// TokenDetail is the metadata record the market API returns for one
// coin type.
type TokenDetail struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Price          Scalar `json:"price"`
	PriceChange24H Scalar `json:"priceChangePercentage24H"`
	TotalSupply    Scalar `json:"totalSupply"`
	Holders        Scalar `json:"holders"`
	MarketCap      Scalar `json:"marketCap"`
	Verified       bool   `json:"verified"`
	ScamFlag       int    `json:"scamFlag"`
}

// Holder is one entry of the holder distribution, with its share of
// the total supply as a fraction.
type Holder struct {
	Address    string `json:"address"`
	Percentage Scalar `json:"percentage"`
}

type detailEnvelope struct {
	Result TokenDetail `json:"result"`
}

type holdersEnvelope struct {
	Result struct {
		Data []Holder `json:"data"`
	} `json:"result"`
}
