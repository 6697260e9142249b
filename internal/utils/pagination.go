package utils

import (
  "strconv"
)

const (
  DefaultPage   = 1
  DefaultLimit  = 10
  MaxLimit      = 100
)

// ParsePageParams falls back to the defaults for missing, unparsable or
// non-positive values.
func ParsePageParams(pageStr, limitStr string) (int, int) {
  page, err := strconv.Atoi(pageStr)
  if err != nil || page < 1 {
    page = DefaultPage
  }
  limit, err := strconv.Atoi(limitStr)
  if err != nil || limit < 1 {
    limit = DefaultLimit
  }
  if limit > MaxLimit {
    limit = MaxLimit
  }
  return page, limit
}

func Offset(page, limit int) int {
  return (page - 1) * limit
}

func TotalPages(total int64, limit int) int {
  if limit <= 0 {
    return 0
  }
  return int((total + int64(limit) - 1) / int64(limit))
}
