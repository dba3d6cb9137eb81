// Package gistdatest provides an in-process stand-in for the GISTDA hotspot
// feed, used by tests and the mockfeed command.
package gistdatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
)

// Feed serves generated hotspot features with offset/limit paging.
type Feed struct {
	// Total is the number of features the feed holds. A negative Total makes
	// every page full, forever.
	Total int
	// ReportTotal sets numberMatched on every response.
	ReportTotal bool
	// Key, when set, must match the api_key parameter or the feed answers 401.
	Key string
	// FailAtOffset answers FailStatus for requests at that offset when FailStatus is set.
	FailAtOffset int
	FailStatus   int
	// Generate builds the i-th feature. Defaults to SampleFeature.
	Generate func(i int) domain.Feature

	mu      sync.Mutex
	offsets []int
}

// Offsets returns the offsets requested so far, in order.
func (f *Feed) Offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if f.Key != "" && q.Get("api_key") != f.Key {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	offset, err1 := strconv.Atoi(q.Get("offset"))
	limit, err2 := strconv.Atoi(q.Get("limit"))
	if err1 != nil || err2 != nil || offset < 0 || limit <= 0 {
		http.Error(w, `{"message":"bad paging parameters"}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()

	if f.FailStatus != 0 && offset == f.FailAtOffset {
		http.Error(w, fmt.Sprintf(`{"message":"failure at offset %d"}`, offset), f.FailStatus)
		return
	}

	gen := f.Generate
	if gen == nil {
		gen = SampleFeature
	}

	n := limit
	if f.Total >= 0 {
		n = min(limit, max(f.Total-offset, 0))
	}
	page := domain.Page{Features: make([]domain.Feature, 0, n)}
	for i := 0; i < n; i++ {
		page.Features = append(page.Features, gen(offset+i))
	}
	if f.ReportTotal && f.Total >= 0 {
		page.NumberMatched = f.Total
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page) //nolint:errcheck // test feed
}

var (
	countries = []string{"Thailand", "Thailand", "Thailand", "Myanmar", "Laos", "China", "Cambodia", "Thailand"}
	provinces = []string{"เชียงใหม่", "เชียงราย", "ตาก", "แม่ฮ่องสอน", "น่าน"}
	landUses  = []string{"ป่าสงวนแห่งชาติ", "พื้นที่เกษตร", "ป่าอนุรักษ์", "ชุมชนและอื่นๆ", "พื้นที่ริมทางหลวง"}
)

// SampleFeature deterministically generates the i-th feature. Non-Thai
// hotspots carry no Thai province or land-use.
func SampleFeature(i int) domain.Feature {
	country := countries[i%len(countries)]
	p := domain.Properties{
		ID:         domain.StringValue(fmt.Sprintf("hs-%06d", i)),
		HotspotID:  domain.IntValue(int64(100000 + i)),
		AcqDate:    domain.StringValue("2026-10-17"),
		AcqTime:    domain.StringValue(fmt.Sprintf("%02d%02d", 6+i%2*12, i%60)),
		CtEn:       domain.StringValue(country),
		Latitude:   domain.NumberValue(14.0 + float64(i%500)/100),
		Longitude:  domain.NumberValue(98.0 + float64(i%700)/100),
		Confidence: domain.StringValue([]string{"nominal", "high", "low"}[i%3]),
		FRP:        domain.NumberValue(float64(i%40) + 0.5),
		Satellite:  domain.StringValue("N"),
		Instrument: domain.StringValue("VIIRS"),
		ThDate:     domain.StringValue("2026-10-17T00:00:00.000Z"),
	}
	if country == "Thailand" {
		p.CtTn = domain.StringValue("ไทย")
		p.PvTn = domain.StringValue(provinces[i%len(provinces)])
		p.LuName = domain.StringValue(landUses[(i/2)%len(landUses)])
	}
	return domain.Feature{Properties: p}
}
