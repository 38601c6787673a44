package ports

import "github.com/bnema/guac-console/internal/domain"

// StatisticsSource is the live statistics object of a session. Every call returns a
// fresh copy.
type StatisticsSource interface {
	Statistics() domain.StatisticsSnapshot
}
