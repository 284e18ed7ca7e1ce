package memstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/haivivi/echomemo/pkg/kv"
)

// KV key layout.
//
//	memo:seq                     → last assigned ID (decimal)
//	memo:entry:{id}              → msgpack Entry
//	memo:day:{YYYYMMDD}:{id}     → empty, day index
//
// IDs are zero-padded to 20 digits so lexicographic order is numeric order.

const dayLayout = "20060102"

func seqKey() kv.Key {
	return kv.Key{"memo", "seq"}
}

func entryPrefix() kv.Key {
	return kv.Key{"memo", "entry"}
}

func entryKey(id uint64) kv.Key {
	return kv.Key{"memo", "entry", formatID(id)}
}

func dayPrefix(day time.Time) kv.Key {
	return kv.Key{"memo", "day", day.Format(dayLayout)}
}

func dayKey(day time.Time, id uint64) kv.Key {
	return kv.Key{"memo", "day", day.Format(dayLayout), formatID(id)}
}

func formatID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func parseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
