package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RatePair identifies one offered/desired token pair the RateTable prices.
type RatePair struct {
	OfferedToken string `yaml:"offered_token"`
	DesiredToken string `yaml:"desired_token"`
}

// RateTable is a static exchange-rate lookup table loaded from YAML, the
// one concrete instance of the external "acceptance policy" collaborator
// spec §9 calls out. The Non-goal on exchange-rate feed details is honored
// here: this is a static table, never a live feed.
type RateTable struct {
	rates map[RatePair]float64
}

type rateTableFile struct {
	Rates []struct {
		OfferedToken string  `yaml:"offered_token"`
		DesiredToken string  `yaml:"desired_token"`
		Rate         float64 `yaml:"rate"`
	} `yaml:"rates"`
}

// LoadRateTable reads a YAML rate table from path, shaped:
//
//	rates:
//	  - offered_token: "0xusdc"
//	    desired_token: "0xusdt"
//	    rate: 0.999
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scheduler: read rate table %s: %w", path, err)
	}
	var file rateTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("scheduler: parse rate table %s: %w", path, err)
	}

	t := &RateTable{rates: make(map[RatePair]float64, len(file.Rates))}
	for _, r := range file.Rates {
		t.rates[RatePair{OfferedToken: r.OfferedToken, DesiredToken: r.DesiredToken}] = r.Rate
	}
	return t, nil
}

// Rate returns the configured rate for the pair, or false if unconfigured.
func (t *RateTable) Rate(offeredToken, desiredToken string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	r, ok := t.rates[RatePair{OfferedToken: offeredToken, DesiredToken: desiredToken}]
	return r, ok
}

// Accepts evaluates whether a draft's offered/desired amounts clear the
// configured rate for its token pair (offeredAmount * rate >=
// desiredAmount), the signing loop's "evaluate acceptance" step.
func (t *RateTable) Accepts(d Draft) bool {
	rate, ok := t.Rate(d.OfferedToken, d.DesiredToken)
	if !ok {
		return false
	}
	return float64(d.OfferedAmount)*rate >= float64(d.DesiredAmount)
}
