package utils

import "strconv"

func BuildEventCacheKey(id int64) string {
	return "events:v1:id=" + strconv.FormatInt(id, 10)
}
