package dnssec

import (
	"github.com/miekg/dns"
)

func extractRecords[T dns.RR](rr []dns.RR) []T {
	r := make([]T, 0, len(rr))
	for _, record := range rr {
		if typedRecord, ok := record.(T); ok {
			r = append(r, typedRecord)
		}
	}
	return r
}
