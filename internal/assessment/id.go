package assessment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// idKeys are the object keys that wrap an identifier in the shapes the
// backend has been seen to emit ({"_id": ...}, {"$oid": ...}, {"id": ...}).
var idKeys = []string{"_id", "$oid", "id"}

// NormalizeID coerces an identifier of any decoded JSON shape to its
// canonical string form. Unknown shapes normalize to "".
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case map[string]any:
		for _, k := range idKeys {
			if inner, ok := id[k]; ok {
				return NormalizeID(inner)
			}
		}
		return ""
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	}
	return ""
}
