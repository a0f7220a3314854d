package sourcing

import (
	"fmt"
	"hash/fnv"
	"strings"
)

var (
	samplePrefixes = []string{"Summit", "Front Range", "Mile High", "Peak", "Evergreen", "Cornerstone", "Blue Sky", "Red Rock", "Pinnacle", "Liberty", "Keystone", "Timberline"}
	sampleSuffixes = []string{"Services", "Pros", "Co.", "Solutions", "& Sons", "Experts"}
	sampleStreets  = []string{"Main St", "Broadway", "Colfax Ave", "Federal Blvd", "Market St", "Oak Dr", "Elm St", "Park Ave"}
	sampleAreaCode = map[string]string{
		"CO": "303", "NY": "212", "TX": "512", "CA": "415", "IL": "312", "FL": "305", "WA": "206", "AZ": "602",
	}
)

// SampleBusinesses returns limit made-up listings for an industry and
// location. The same inputs always produce the same listings.
func SampleBusinesses(location, industry string, limit int) []Business {
	city, state := splitLocation(location)
	areaCode := sampleAreaCode[state]
	if areaCode == "" {
		areaCode = "555"
	}
	slug := strings.ToLower(strings.ReplaceAll(industry, " ", ""))

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(location + "|" + industry)))
	seed := int(h.Sum32() % 1000)

	out := make([]Business, 0, limit)
	for i := 0; i < limit; i++ {
		n := seed + i
		prefix := samplePrefixes[n%len(samplePrefixes)]
		suffix := sampleSuffixes[(n/len(samplePrefixes))%len(sampleSuffixes)]
		name := fmt.Sprintf("%s %s %s", prefix, industry, suffix)
		if i >= len(samplePrefixes)*len(sampleSuffixes) {
			name = fmt.Sprintf("%s #%d", name, i+1)
		}
		out = append(out, Business{
			Name:     name,
			Phone:    fmt.Sprintf("(%s) 555-%04d", areaCode, (seed*7+i)%10000),
			Category: industry,
			Address:  fmt.Sprintf("%d %s, %s, %s 80%03d", 100+(n*37)%9000, sampleStreets[n%len(sampleStreets)], city, state, n%1000),
			Website:  fmt.Sprintf("https://www.%s%s%d.example.com", strings.ToLower(strings.ReplaceAll(prefix, " ", "")), slug, i+1),
		})
	}
	return out
}

// splitLocation reads "Denver, CO" into its parts.
func splitLocation(location string) (string, string) {
	city, state, ok := strings.Cut(location, ",")
	if !ok {
		return strings.TrimSpace(location), ""
	}
	return strings.TrimSpace(city), strings.ToUpper(strings.TrimSpace(state))
}
