package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs for shipline.
// Pattern: shipline:{module}:{operation}:{identifier}

const CACHE_PREFIX = "shipline"

// Catalog cache keys
const (
	CACHE_KEY_PORTS           = CACHE_PREFIX + ":catalog:ports:all"
	CACHE_KEY_SCHEDULE_SEARCH = CACHE_PREFIX + ":catalog:search" // + :dep:X:arr:Y:date:Z
	CACHE_KEY_SCHEDULE_DETAIL = CACHE_PREFIX + ":catalog:schedule:" // + schedule-id
)

// Catalog cache TTLs
const (
	TTL_PORTS           = 12 * time.Hour
	TTL_SCHEDULE_SEARCH = 5 * time.Minute
	TTL_SCHEDULE_DETAIL = 15 * time.Minute
)

func BuildScheduleSearchKey(departurePortID, arrivalPortID, date string) string {
	return fmt.Sprintf("%s:dep:%s:arr:%s:date:%s", CACHE_KEY_SCHEDULE_SEARCH, departurePortID, arrivalPortID, date)
}

func BuildScheduleDetailKey(scheduleID string) string {
	return CACHE_KEY_SCHEDULE_DETAIL + scheduleID
}
