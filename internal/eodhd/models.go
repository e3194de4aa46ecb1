package eodhd

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// EODData is one end-of-day bar. Date is zero when the API sent an unparseable date.
type EODData struct {
	Date          time.Time `json:"-"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// UnmarshalJSON decodes a bar, tolerating malformed dates
func (d *EODData) UnmarshalJSON(data []byte) error {
	type bar EODData
	aux := struct {
		*bar
		Date string `json:"date"`
	}{bar: (*bar)(d)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	d.Date = time.Time{}
	if t, err := time.Parse(dateLayout, aux.Date); err == nil {
		d.Date = t
	}
	return nil
}

// EODResponse is the /eod payload
type EODResponse []EODData
