package handlers

import (
	"errors"
	"strconv"
)

const maxPageSize = 100

var errInvalidPagination = errors.New("page and limit must be positive integers")

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return page, limit, nil
}

type pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPagination(page, limit, total int64) pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
